package service

import (
	"crypto/md5"
	"math/big"
	"math/rand/v2"

	"github.com/guregu/null/v6"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/Aashish23092/annual-report-analytics/utils"
)

// Reference year and values the estimates compound from.
const estimateBaseYear = 2023

var estimateBase = struct {
	revenue, costOfSales, operatingExpenses, eps, naps float64
}{
	revenue:           168.5,
	costOfSales:       125.2,
	operatingExpenses: 23.7,
	eps:               12.75,
	naps:              98.65,
}

// estimateTaxFactor turns operating profit into net profit.
const estimateTaxFactor = 0.85

const estimateNoise = 0.03

type growthRates struct {
	revenue, cost, expense, eps, naps float64
}

// growthFor returns the year-over-year rates used when compounding toward year.
func growthFor(year int) growthRates {
	switch {
	case year < 2020:
		return growthRates{0.09, 0.08, 0.07, 0.11, 0.08}
	case year == 2020:
		// pandemic contraction; expenses still rose
		return growthRates{-0.09, -0.04, 0.02, -0.17, -0.03}
	case year == 2021:
		return growthRates{0.07, 0.06, 0.05, 0.10, 0.05}
	case year == 2022:
		return growthRates{0.10, 0.09, 0.08, 0.13, 0.09}
	case year == 2023:
		return growthRates{0.08, 0.07, 0.06, 0.10, 0.07}
	default:
		return growthRates{0.07, 0.06, 0.05, 0.09, 0.06}
	}
}

func (g growthRates) scaled(f float64) growthRates {
	return growthRates{g.revenue * f, g.cost * f, g.expense * f, g.eps * f, g.naps * f}
}

var sampleShareholders = []struct {
	name  string
	base  float64
	drift float64
}{
	{"Melstacorp PLC", 17.5, 0.2},
	{"Ceylon Guardian Investment Trust", 14.8, 0.15},
	{"Employees Provident Fund", 12.3, 0.1},
	{"HSBC International Nominees", 9.7, 0.05},
	{"Sri Lanka Insurance Corporation", 8.4, 0.03},
	{"National Savings Bank", 7.1, 0.02},
	{"Employees Trust Fund Board", 6.5, 0.01},
	{"Bank of Ceylon", 5.8, 0.01},
	{"Mercantile Investments", 4.2, 0.005},
	{"Life Insurance Corporation", 3.7, 0.005},
}

// identifierHash maps an identifier to 0..999 through its MD5 digest.
func identifierHash(identifier string) uint64 {
	sum := md5.Sum([]byte(identifier))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, big.NewInt(1000)).Uint64()
}

// GenerateEstimated builds a plausible record and shareholder list for year.
// The output depends only on identifier and year.
func GenerateEstimated(identifier string, year int) (dto.FinancialRecord, []dto.ShareholderRecord) {
	hash := identifierHash(identifier)
	variation := 0.8 + float64(hash)/1000*0.4
	rng := rand.New(rand.NewPCG(hash, uint64(year)))

	g := growthFor(year).scaled(variation)

	revenue := estimateBase.revenue
	cost := estimateBase.costOfSales
	opex := estimateBase.operatingExpenses
	eps := estimateBase.eps
	naps := estimateBase.naps

	steps := year - estimateBaseYear
	for i := 0; i < abs(steps); i++ {
		if steps > 0 {
			revenue *= 1 + g.revenue
			cost *= 1 + g.cost
			opex *= 1 + g.expense
			eps *= 1 + g.eps
			naps *= 1 + g.naps
		} else {
			revenue /= 1 + g.revenue
			cost /= 1 + g.cost
			opex /= 1 + g.expense
			eps /= 1 + g.eps
			naps /= 1 + g.naps
		}
	}

	noise := func() float64 { return 1 + (rng.Float64()*2-1)*estimateNoise }

	netProfit := (revenue - cost - opex) * estimateTaxFactor
	revenue *= noise()
	cost *= noise()
	grossProfit := revenue - cost
	opex *= noise()
	operatingProfit := grossProfit - opex
	netProfit *= noise()
	eps *= noise()
	naps *= noise()

	record := dto.FinancialRecord{
		Year:              year,
		Period:            dto.PeriodAnnual,
		Revenue:           null.FloatFrom(utils.Round2(revenue)),
		CostOfSales:       null.FloatFrom(utils.Round2(cost)),
		GrossProfit:       null.FloatFrom(utils.Round2(grossProfit)),
		OperatingExpenses: null.FloatFrom(utils.Round2(opex)),
		OperatingProfit:   null.FloatFrom(utils.Round2(operatingProfit)),
		NetProfit:         null.FloatFrom(utils.Round2(netProfit)),
		EPS:               null.FloatFrom(utils.Round2(eps)),
		NetAssetPerShare:  null.FloatFrom(utils.Round2(naps)),
		Industry:          dto.IndustryAll,
		Currency:          dto.CurrencyLKR,
		Source:            dto.SourceSample,
	}

	pcts := make([]float64, len(sampleShareholders))
	for i, s := range sampleShareholders {
		pcts[i] = s.base - float64(year-2020)*s.drift*(rng.Float64()*0.5+0.75)
	}
	names := make([]string, len(sampleShareholders))
	for i, s := range sampleShareholders {
		names[i] = s.name
	}
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	holders := make([]dto.ShareholderRecord, len(names))
	for i := range names {
		holders[i] = dto.ShareholderRecord{
			Year:                year,
			Name:                names[i],
			OwnershipPercentage: utils.Round2(max(0.5, pcts[i])),
		}
	}

	return record, holders
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
