package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

// MinReportYear and MaxReportYear bound the fiscal years a report may carry.
const (
	MinReportYear = 2019
	MaxReportYear = 2024
)

// yearScanPages is how many leading pages are searched for the report year.
const yearScanPages = 10

// metricRule is an ordered list of patterns and the range a value must fall in.
type metricRule struct {
	metric   dto.Metric
	patterns []*regexp.Regexp
	min, max float64
}

const amount = `([0-9,]+(?:\.[0-9]+)?)`
const scale = `\s*(?:million|billion)?`

// Patterns run against lower-cased text; the last capture group holds the number.
var metricRules = []metricRule{
	{
		metric: dto.MetricRevenue,
		patterns: compile(
			`revenue.*?`+amount+scale,
			`total revenue.*?`+amount+scale,
			`group revenue.*?`+amount+scale,
			`revenue\s*(?:rs\.?|lkr)\s*`+amount+scale,
			`revenue[^\n\d]+([\d,]+\.?\d*)`,
			`revenue\s*:\s*([\d,]+\.?\d*)`,
		),
		min: 1, max: 1e6,
	},
	{
		metric: dto.MetricCostOfSales,
		patterns: compile(
			`cost of (?:sales|revenue|goods sold).*?`+amount+scale,
			`cost of sales[^\n\d]+([\d,]+\.?\d*)`,
		),
		min: 1, max: 1e6,
	},
	{
		metric: dto.MetricGrossProfit,
		patterns: compile(
			`gross profit.*?`+amount+scale,
			`gross profit[^\n\d]+([\d,]+\.?\d*)`,
		),
		min: 1, max: 1e5,
	},
	{
		metric: dto.MetricOperatingExpenses,
		patterns: compile(
			`(?:total )?operating expenses.*?`+amount+scale,
			`(?:administrative|distribution) expenses.*?`+amount+scale,
		),
		min: 1, max: 1e5,
	},
	{
		metric: dto.MetricOperatingProfit,
		patterns: compile(
			`(?:operating profit|results from operating activities).*?`+amount+scale,
			`operating profit[^\n\d]+([\d,]+\.?\d*)`,
		),
		min: 1, max: 1e5,
	},
	{
		metric: dto.MetricNetProfit,
		patterns: compile(
			`(net profit|profit after tax).*?`+amount+scale,
			`profit for the year.*?`+amount+scale,
			`profit attributable.*?`+amount+scale,
			`net profit[^\n\d]+([\d,]+\.?\d*)`,
			`profit after tax[^\n\d]+([\d,]+\.?\d*)`,
		),
		min: 1, max: 1e5,
	},
	{
		metric: dto.MetricEPS,
		patterns: compile(
			`earnings per share.*?`+amount,
			`eps.*?`+amount,
			`basic earnings per share.*?`+amount,
			`diluted earnings per share.*?`+amount,
			`earnings per share[^\n\d]+([\d,]+\.?\d*)`,
			`eps[^\n\d]+([\d,]+\.?\d*)`,
		),
		min: 0.01, max: 1000,
	},
	{
		metric: dto.MetricNetAssetPerShare,
		patterns: compile(
			`net assets? (?:value )?per share.*?`+amount,
			`naps[^\n\d]+([\d,]+\.?\d*)`,
		),
		min: 0.01, max: 10000,
	},
}

// Year patterns in priority order. Matching is case-insensitive.
var yearPatterns = compile(
	`(?i)annual report[\s\n]*(\d{4})`,
	`(?i)report\s+(\d{4})`,
	`(?i)financial year[\s\n]*(\d{4})`,
	`(?i)for the year (\d{4})`,
	`(?i)year end(?:ed)?[\s\n]*(?:march|december|june)[\s\n]*(\d{4})`,
	`(?i)(?:march|december|june)[\s\n]*(\d{4})`,
	`(?i)fy[\s\n]*(\d{4})`,
	`20\d\d[/\-](\d{2,4})`,
)

var (
	dmyDate            = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.](\d{4})\b`)
	ymdDate            = regexp.MustCompile(`\b(\d{4})[/\-.]\d{1,2}[/\-.]\d{1,2}\b`)
	yearToken          = regexp.MustCompile(`20\d\d`)
	nonNumeric         = regexp.MustCompile(`[^\d.]`)
	percentToken       = regexp.MustCompile(`(\d{1,3}\.\d+)\s*%?\s*$`)
	shareCount         = regexp.MustCompile(`\s+[\d,]{4,}\s*$`)
	shareholderHeading = regexp.MustCompile(`(?i)(?:major|top|largest)\s+(?:\w+\s+){0,2}shareholders`)
	serialPrefix       = regexp.MustCompile(`^\d{1,2}[.)]?\s+`)
	sectionBreak       = regexp.MustCompile(`(?i)^(?:total|note|directors|distribution of shareholding)`)
)

const maxShareholders = 20

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// ValidReportYear reports whether y is inside the accepted fiscal year range.
func ValidReportYear(y int) bool {
	return y >= MinReportYear && y <= MaxReportYear
}

// expandYear turns a 2 or 4 digit capture into a year, prefixing "20" to two
// digit tokens.
func expandYear(token string) (int, bool) {
	if len(token) == 2 {
		token = "20" + token
	}
	if len(token) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return y, true
}

// YearFromFilename returns the first 2019-2024 year found in a filename.
func YearFromFilename(name string) (int, bool) {
	for _, tok := range yearToken.FindAllString(name, -1) {
		if y, err := strconv.Atoi(tok); err == nil && ValidReportYear(y) {
			return y, true
		}
	}
	return 0, false
}

// firstYear returns the first accepted year any of patterns captures in text,
// trying patterns in order.
func firstYear(text string, patterns ...*regexp.Regexp) (int, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if y, ok := expandYear(m[1]); ok && ValidReportYear(y) {
				return y, true
			}
		}
	}
	return 0, false
}

// DetectYear picks the fiscal year of a report. A valid hint wins, then the
// labelled year patterns page by page over the first pages, then date strings, then the
// filename. When nothing matches the current year is used, capped at the
// last accepted year.
func DetectYear(pages []string, hint int, filename string, currentYear int) int {
	if ValidReportYear(hint) {
		return hint
	}

	n := len(pages)
	if n > yearScanPages {
		n = yearScanPages
	}
	leading := pages[:n]

	// Labelled years: the earliest page with any match wins.
	for _, page := range leading {
		if y, ok := firstYear(page, yearPatterns...); ok {
			return y
		}
	}

	// Bare dates: day-first across every page before year-first.
	for _, re := range []*regexp.Regexp{dmyDate, ymdDate} {
		for _, page := range leading {
			if y, ok := firstYear(page, re); ok {
				return y
			}
		}
	}

	if y, ok := YearFromFilename(filename); ok {
		return y
	}

	if currentYear > MaxReportYear {
		return MaxReportYear
	}
	return currentYear
}

// ExtractMetrics searches the report text for every known metric. For each
// metric the patterns are tried in order and the first plausible value wins.
func ExtractMetrics(text string) map[dto.Metric]float64 {
	lower := strings.ToLower(text)
	found := make(map[dto.Metric]float64)

	for _, rule := range metricRules {
		for _, re := range rule.patterns {
			m := re.FindStringSubmatch(lower)
			if len(m) < 2 {
				continue
			}
			v, ok := ParseAmount(m[len(m)-1])
			if !ok {
				continue
			}
			if v >= rule.min && v <= rule.max {
				found[rule.metric] = v
				break
			}
		}
	}

	return found
}

// ParseAmount strips everything but digits and the decimal point and parses
// the rest.
func ParseAmount(s string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractShareholders reads "<name> [<shares>] <pct>" lines that follow a
// major shareholders heading.
func ExtractShareholders(text string, year int) []dto.ShareholderRecord {
	var out []dto.ShareholderRecord
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if shareholderHeading.MatchString(line) {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if sectionBreak.MatchString(line) {
			inSection = false
			continue
		}

		m := percentToken.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		pct, err := strconv.ParseFloat(line[m[2]:m[3]], 64)
		if err != nil || pct <= 0 || pct > 100 {
			continue
		}

		name := strings.TrimSpace(shareCount.ReplaceAllString(line[:m[0]], ""))
		name = strings.Trim(name, " .:-")
		if name == "" || !hasLetter(name) {
			continue
		}
		name = serialPrefix.ReplaceAllString(name, "")

		out = append(out, dto.ShareholderRecord{
			Year:                year,
			Name:                NormalizeString(name),
			OwnershipPercentage: pct,
		})
		if len(out) == maxShareholders {
			break
		}
	}

	return out
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// NormalizeString collapses runs of whitespace
func NormalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
