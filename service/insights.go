package service

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/yuin/goldmark"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

// Insight kinds
const (
	InsightRevenueTrend  = "revenue_trend"
	InsightProfitability = "profitability"
	InsightEPS           = "eps"
	InsightCostStructure = "cost_structure"
	InsightNetAssets     = "net_assets"
	InsightProvenance    = "provenance"
)

const (
	trendWindow          = 3
	significantEPSGrowth = 15.0
	stableRatioBand      = 1.0
)

// InsightOptions configures the narrative generator.
type InsightOptions struct {
	CompanyName          string
	GrossMarginBenchmark float64
	NetMarginBenchmark   float64
	NAPSBenchmark        float64
}

// InsightService writes templated narratives about the latest annual rows.
type InsightService struct {
	opts InsightOptions
	md   goldmark.Markdown
}

func NewInsightService(opts InsightOptions) *InsightService {
	if opts.CompanyName == "" {
		opts.CompanyName = "The company"
	}
	return &InsightService{opts: opts, md: goldmark.New()}
}

// Insights returns the findings supported by the data. Findings whose inputs
// are missing are left out.
func (s *InsightService) Insights(t dto.Table) []dto.Insight {
	annual := t.Annual()
	if len(annual) == 0 {
		return nil
	}
	if len(annual) > trendWindow {
		annual = annual[len(annual)-trendWindow:]
	}

	var out []dto.Insight
	add := func(kind, title, body string) {
		if body == "" {
			return
		}
		md := fmt.Sprintf("**%s:** %s", title, body)
		out = append(out, dto.Insight{Kind: kind, Title: title, Markdown: md, HTML: s.renderInline(md)})
	}

	latest := annual[len(annual)-1]
	var prev *dto.DerivedRecord
	if len(annual) > 1 {
		prev = &annual[len(annual)-2]
	}

	if title, body := s.revenueTrend(annual); body != "" {
		add(InsightRevenueTrend, title, body)
	}
	add(InsightProfitability, fmt.Sprintf("Profitability Analysis (%d)", latest.Year), s.profitability(latest))
	add(InsightEPS, fmt.Sprintf("Earnings Per Share (%d)", latest.Year), s.epsGrowth(latest))
	if prev != nil {
		add(InsightCostStructure, fmt.Sprintf("Cost Structure Analysis (%d)", latest.Year), costStructure(latest, *prev))
	}
	add(InsightNetAssets, fmt.Sprintf("Net Asset Value Analysis (%d)", latest.Year), s.netAssets(latest))
	add(InsightProvenance, "Data Provenance", provenance(annual))

	return out
}

func (s *InsightService) revenueTrend(rows []dto.DerivedRecord) (string, string) {
	type step struct {
		year   int
		growth float64
	}
	var steps []step
	for _, r := range rows {
		if r.RevenueYoYGrowth.Valid {
			steps = append(steps, step{r.Year, r.RevenueYoYGrowth.Float64})
		}
	}
	if len(steps) == 0 {
		return "", ""
	}

	up := steps[0].growth > 0
	consistent := true
	for _, st := range steps[1:] {
		if (st.growth > 0) != up {
			consistent = false
			break
		}
	}

	if consistent {
		years := make([]string, len(steps))
		var total float64
		for i, st := range steps {
			years[i] = fmt.Sprint(st.year)
			total += math.Abs(st.growth)
		}
		avg := total / float64(len(steps))
		direction, rate, reading := "increased", "growth", "This indicates strong market performance and effective business strategies."
		if !up {
			direction, rate, reading = "decreased", "decline", "This may indicate market challenges or strategic repositioning."
		}
		return "Revenue Trend", fmt.Sprintf("%s has shown a consistent %s revenue trend in %s with an average %s rate of %.1f%%. %s",
			s.opts.CompanyName, direction, strings.Join(years, ", "), rate, avg, reading)
	}

	last := steps[len(steps)-1]
	body := fmt.Sprintf("%s has shown volatility in revenue over recent years. ", s.opts.CompanyName)
	if last.growth > 0 {
		body += fmt.Sprintf("In %d, revenue increased by %.1f%% which may indicate a positive shift in market conditions or successful implementation of growth strategies.", last.year, last.growth)
	} else {
		body += fmt.Sprintf("In %d, revenue decreased by %.1f%% which may require attention to revenue generation strategies.", last.year, math.Abs(last.growth))
	}
	return "Revenue Volatility", body
}

func (s *InsightService) profitability(r dto.DerivedRecord) string {
	gp, np := r.GrossProfitMargin, r.NetProfitMargin
	if !gp.Valid || !np.Valid {
		return ""
	}
	gpB, npB := s.opts.GrossMarginBenchmark, s.opts.NetMarginBenchmark

	var b strings.Builder
	if gp.Float64 > gpB {
		fmt.Fprintf(&b, "Gross profit margin of %.1f%% exceeds the industry average of %.1f%%, indicating strong pricing power and efficient cost of goods sold management. ", gp.Float64, gpB)
	} else {
		fmt.Fprintf(&b, "Gross profit margin of %.1f%% is below the industry average of %.1f%%, suggesting potential for improvement in pricing strategy or cost of sales management. ", gp.Float64, gpB)
	}
	if np.Float64 > npB {
		fmt.Fprintf(&b, "Net profit margin of %.1f%% is above the industry benchmark of %.1f%%, demonstrating effective overall cost control and operational efficiency.", np.Float64, npB)
	} else {
		fmt.Fprintf(&b, "Net profit margin of %.1f%% is below the industry benchmark of %.1f%%, indicating opportunities for improvement in operating expense management.", np.Float64, npB)
	}
	return b.String()
}

func (s *InsightService) epsGrowth(r dto.DerivedRecord) string {
	if !r.EPS.Valid || !r.EPSYoYGrowth.Valid {
		return ""
	}
	eps, g := r.EPS.Float64, r.EPSYoYGrowth.Float64
	switch {
	case g > significantEPSGrowth:
		return fmt.Sprintf("%s recorded an EPS of %.2f %s, a %.1f%% increase from the previous year. This significant growth suggests strong profitability and effective capital allocation, which may positively impact shareholder returns and investor confidence.",
			s.opts.CompanyName, eps, r.Currency, g)
	case g > 0:
		return fmt.Sprintf("%s recorded an EPS of %.2f %s, a %.1f%% increase from the previous year. This moderate growth indicates steady improvement in profitability, which should help maintain investor confidence.",
			s.opts.CompanyName, eps, r.Currency, g)
	default:
		return fmt.Sprintf("%s recorded an EPS of %.2f %s, a %.1f%% decrease from the previous year. This decline may raise concerns about profitability challenges or increased share dilution, and could impact shareholder value if the trend continues.",
			s.opts.CompanyName, eps, r.Currency, math.Abs(g))
	}
}

func costStructure(cur, prev dto.DerivedRecord) string {
	cogs, prevCogs := ratio(cur.CostOfSales, cur.Revenue), ratio(prev.CostOfSales, prev.Revenue)
	opex, prevOpex := ratio(cur.OperatingExpenses, cur.Revenue), ratio(prev.OperatingExpenses, prev.Revenue)
	if !cogs.Valid || !prevCogs.Valid || !opex.Valid || !prevOpex.Valid {
		return ""
	}
	cogsChange := cogs.Float64 - prevCogs.Float64
	opexChange := opex.Float64 - prevOpex.Float64

	var b strings.Builder
	switch {
	case math.Abs(cogsChange) < stableRatioBand:
		fmt.Fprintf(&b, "Cost of sales remained stable at %.1f%% of revenue. ", cogs.Float64)
	case cogsChange > 0:
		fmt.Fprintf(&b, "Cost of sales increased to %.1f%% of revenue (+%.1f percentage points), which may indicate rising input costs or pricing pressure. ", cogs.Float64, cogsChange)
	default:
		fmt.Fprintf(&b, "Cost of sales decreased to %.1f%% of revenue (%.1f percentage points), suggesting improved sourcing efficiency or favorable input cost trends. ", cogs.Float64, cogsChange)
	}
	switch {
	case math.Abs(opexChange) < stableRatioBand:
		fmt.Fprintf(&b, "Operating expenses remained stable at %.1f%% of revenue, indicating consistent operational efficiency.", opex.Float64)
	case opexChange > 0:
		fmt.Fprintf(&b, "Operating expenses increased to %.1f%% of revenue (+%.1f percentage points), which may require attention to cost control measures.", opex.Float64, opexChange)
	default:
		fmt.Fprintf(&b, "Operating expenses decreased to %.1f%% of revenue (%.1f percentage points), reflecting successful cost optimization initiatives.", opex.Float64, opexChange)
	}
	return b.String()
}

func (s *InsightService) netAssets(r dto.DerivedRecord) string {
	bench := s.opts.NAPSBenchmark
	if !r.NetAssetPerShare.Valid || bench <= 0 {
		return ""
	}
	naps := r.NetAssetPerShare.Float64
	if naps > bench {
		return fmt.Sprintf("Net asset per share of %.2f %s is %.1f%% above the industry average, indicating strong balance sheet health and potential undervaluation compared to peers. This robust asset base provides financial stability and capacity for future growth investments.",
			naps, r.Currency, (naps-bench)/bench*100)
	}
	return fmt.Sprintf("Net asset per share of %.2f %s is %.1f%% below the industry average, suggesting potential opportunities to strengthen the balance sheet. Management may consider strategies to improve asset utilization or reduce liabilities to enhance shareholder value.",
		naps, r.Currency, (bench-naps)/bench*100)
}

func provenance(rows []dto.DerivedRecord) string {
	years := estimatedYears(rows)
	if len(years) == 0 {
		return ""
	}
	return fmt.Sprintf("Figures for %s are estimated because no metrics could be read from the uploaded report. Treat them as illustrative only.", strings.Join(years, ", "))
}

func estimatedYears(rows []dto.DerivedRecord) []string {
	var years []string
	for _, r := range rows {
		if r.Source == dto.SourceSample {
			years = append(years, fmt.Sprint(r.Year))
		}
	}
	return years
}

// Summary writes the executive summary of the latest annual row.
func (s *InsightService) Summary(t dto.Table) dto.Summary {
	annual := t.Annual()
	if len(annual) == 0 {
		md := "### Executive Summary\n\nInsufficient data available to generate a summary.\n"
		return dto.Summary{Markdown: md, HTML: s.render(md)}
	}

	latest := annual[len(annual)-1]
	var prev *dto.DerivedRecord
	if len(annual) > 1 {
		prev = &annual[len(annual)-2]
	}
	company := s.opts.CompanyName

	var b strings.Builder
	fmt.Fprintf(&b, "### Executive Summary (%d)\n\n", latest.Year)
	fmt.Fprintf(&b, "This analysis examines %s's financial performance from %d to %d with emphasis on growth trends, profitability, and shareholder value.\n\n",
		company, annual[0].Year, latest.Year)

	window := annual
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}
	if years := estimatedYears(window); len(years) > 0 {
		fmt.Fprintf(&b, "> **Note:** figures for %s are estimated, not extracted from a report.\n\n", strings.Join(years, ", "))
	}

	b.WriteString("#### Financial Highlights\n\n")
	highlight := func(label string, v, g null.Float, unit string) {
		if !v.Valid {
			return
		}
		fmt.Fprintf(&b, "- **%s:** %.2f %s", label, v.Float64, unit)
		if g.Valid {
			word := "increase"
			if g.Float64 < 0 {
				word = "decrease"
			}
			fmt.Fprintf(&b, " (%.1f%% %s YoY)", g.Float64, word)
		}
		b.WriteString("\n")
	}
	cur := string(latest.Currency)
	highlight("Revenue", latest.Revenue, latest.RevenueYoYGrowth, "Billion "+cur)
	highlight("Net Profit", latest.NetProfit, latest.NetProfitYoYGrowth, "Billion "+cur)
	highlight("Earnings Per Share", latest.EPS, latest.EPSYoYGrowth, cur)
	highlight("Net Asset Per Share", latest.NetAssetPerShare, latest.NetAssetPerShareYoYGrowth, cur)
	b.WriteString("\n")

	b.WriteString("#### Performance Analysis\n\n")
	var perf []string
	if rg, pg := latest.RevenueYoYGrowth, latest.NetProfitYoYGrowth; rg.Valid && pg.Valid {
		switch {
		case pg.Float64 > 0 && rg.Float64 > 0:
			perf = append(perf, fmt.Sprintf("%s demonstrated strong financial performance in %d with both revenue and profitability showing positive growth.", company, latest.Year))
		case pg.Float64 > 0:
			perf = append(perf, fmt.Sprintf("Despite revenue challenges, %s maintained profitability growth in %d, indicating improved operational efficiency.", company, latest.Year))
		case rg.Float64 > 0:
			perf = append(perf, fmt.Sprintf("While achieving revenue growth in %d, %s experienced pressure on profit margins, suggesting increased operational costs or competitive pricing pressures.", latest.Year, company))
		default:
			perf = append(perf, fmt.Sprintf("%s faced challenges in %d with declines in both revenue and profitability, potentially due to broader economic factors or industry-specific headwinds.", company, latest.Year))
		}
	}
	if gp, np := latest.GrossProfitMargin, latest.NetProfitMargin; gp.Valid && np.Valid {
		sentence := fmt.Sprintf("The company recorded a gross profit margin of %.1f%% and net profit margin of %.1f%%", gp.Float64, np.Float64)
		if prev != nil && prev.GrossProfitMargin.Valid && prev.NetProfitMargin.Valid {
			gpUp := gp.Float64-prev.GrossProfitMargin.Float64 > 0
			npUp := np.Float64-prev.NetProfitMargin.Float64 > 0
			switch {
			case gpUp && npUp:
				sentence += ", with improvements in both margin metrics indicating enhanced operational efficiency and strong cost control."
			case gpUp:
				sentence += ", with improved gross margins but pressure on net profit, suggesting increased operating or non-operating expenses."
			case npUp:
				sentence += ", with enhanced bottom-line efficiency despite pressure on gross margins, indicating effective management of operating expenses."
			default:
				sentence += ", with margin compression at both levels, suggesting cost pressures throughout the business."
			}
		} else {
			sentence += "."
		}
		perf = append(perf, sentence)
	}
	if len(perf) == 0 {
		perf = append(perf, "Not enough comparable data to assess performance.")
	}
	b.WriteString(strings.Join(perf, " "))
	b.WriteString("\n\n")

	b.WriteString("#### Outlook\n\n")
	positive, negative := 0, 0
	for _, g := range []null.Float{latest.RevenueYoYGrowth, latest.EPSYoYGrowth, latest.NetAssetPerShareYoYGrowth} {
		if !g.Valid {
			continue
		}
		if g.Float64 > 0 {
			positive++
		} else {
			negative++
		}
	}
	switch {
	case positive > negative:
		fmt.Fprintf(&b, "Based on current trends, the outlook for %s remains positive with opportunities for continued growth and value creation. Strong financial metrics suggest capacity for strategic investments and shareholder returns, and management should focus on maintaining operational efficiency.\n", company)
	case positive < negative:
		b.WriteString("The outlook presents certain challenges that management will need to address in the coming periods. Focus areas should include revenue growth initiatives, cost optimization, and strategic realignment to improve financial performance metrics.\n")
	default:
		fmt.Fprintf(&b, "%s faces a mixed outlook with both opportunities and challenges ahead. Enhancing revenue growth while maintaining cost discipline will be crucial for improving financial performance.\n", company)
	}

	md := b.String()
	return dto.Summary{Year: latest.Year, Markdown: md, HTML: s.render(md)}
}

func (s *InsightService) render(md string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(md), &buf); err != nil {
		return "<pre>" + html.EscapeString(md) + "</pre>"
	}
	return buf.String()
}

// renderInline renders a single paragraph without the wrapping <p>.
func (s *InsightService) renderInline(md string) string {
	out := strings.TrimSpace(s.render(md))
	out = strings.TrimPrefix(out, "<p>")
	return strings.TrimSuffix(out, "</p>")
}
