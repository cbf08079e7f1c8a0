package econ

import (
	"log"

	"github.com/shopspring/decimal"
)

// baseRiskByType is the starting risk score per project type.
var baseRiskByType = map[ProjectType]float64{
	TypeArchitecture:   0.3,
	TypeEngineering:    0.4,
	TypeLandscaping:    0.2,
	TypeComplex:        0.6,
	TypeRestoration:    0.7,
	TypeInfrastructure: 0.5,
}

const defaultBaseRisk = 0.5

type marketAverage struct {
	Margin float64
	ROI    float64
}

var marketAverages = map[ProjectType]marketAverage{
	TypeArchitecture:   {Margin: 15.0, ROI: 25.0},
	TypeEngineering:    {Margin: 12.0, ROI: 20.0},
	TypeLandscaping:    {Margin: 18.0, ROI: 30.0},
	TypeComplex:        {Margin: 10.0, ROI: 15.0},
	TypeRestoration:    {Margin: 8.0, ROI: 12.0},
	TypeInfrastructure: {Margin: 13.0, ROI: 22.0},
}

var defaultMarketAverage = marketAverage{Margin: 12.0, ROI: 20.0}

var hundred = decimal.NewFromInt(100)

// Engine computes project economics. It is stateless, deterministic, and
// safe to call concurrently.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Calculate estimates the economics of taking tenderAmount with the given
// project setup. Money stays decimal throughout; only ratios become floats.
//
// Team costs are intentionally based on cfg.TotalAmount rather than the
// tenderAmount argument. The two are expected to match in normal use and a
// mismatch is the caller's to resolve.
func (e *Engine) Calculate(tenderAmount decimal.Decimal, cfg *ProjectConfig) *EconomicsResult {
	log.Printf("[econ] calculating economics for project %q", cfg.ProjectName)

	teamCosts, teamBreakdown := e.teamCosts(cfg)

	overheadCosts := decimal.Zero
	for _, v := range cfg.OverheadCosts {
		overheadCosts = overheadCosts.Add(v)
	}

	grossProfit := tenderAmount.Sub(teamCosts).Sub(overheadCosts)
	taxCosts := e.taxCosts(grossProfit, cfg.Taxes)
	netProfit := grossProfit.Sub(taxCosts)
	totalCosts := teamCosts.Add(overheadCosts).Add(taxCosts)

	margin := ratioPercent(netProfit, tenderAmount)
	roi := ratioPercent(netProfit, totalCosts)
	payback := e.paybackMonths(cfg, netProfit)

	level, score, factors := e.assessRisk(cfg, margin)
	market := e.compareToMarket(cfg.ProjectType, margin)

	return &EconomicsResult{
		TotalRevenue:  tenderAmount,
		TotalCosts:    totalCosts,
		GrossProfit:   grossProfit,
		NetProfit:     netProfit,
		ProfitMargin:  margin,
		ROI:           roi,
		PaybackMonths: payback,
		TeamCosts:     teamCosts,
		OverheadCosts: overheadCosts,
		TaxCosts:      taxCosts,
		TeamBreakdown: teamBreakdown,
		RiskLevel:     level,
		RiskScore:     score,
		RiskFactors:   factors,
		Market:        market,
	}
}

func (e *Engine) teamCosts(cfg *ProjectConfig) (decimal.Decimal, map[string]decimal.Decimal) {
	breakdown := make(map[string]decimal.Decimal, len(cfg.Team))
	total := decimal.Zero
	for roleName, role := range cfg.Team {
		cost := cfg.TotalAmount.Mul(decimal.NewFromFloat(role.Percentage))
		breakdown[roleName] = cost
		total = total.Add(cost)
	}
	return total, breakdown
}

// taxCosts applies each tax rate to the gross profit. Multiple taxes add
// up independently, they do not compound sequentially.
func (e *Engine) taxCosts(grossProfit decimal.Decimal, taxes map[string]float64) decimal.Decimal {
	total := decimal.Zero
	for name, rate := range taxes {
		tax := grossProfit.Mul(decimal.NewFromFloat(rate))
		total = total.Add(tax)
		log.Printf("[econ] tax %s: %s (rate %.1f%%)", name, tax.StringFixed(2), rate*100)
	}
	return total
}

func ratioPercent(num, denom decimal.Decimal) float64 {
	if !denom.IsPositive() {
		return 0
	}
	v, _ := num.Div(denom).Mul(hundred).Float64()
	return v
}

// paybackMonths returns how many months of profit recoup the investment,
// or nil when the project never pays back.
func (e *Engine) paybackMonths(cfg *ProjectConfig, netProfit decimal.Decimal) *float64 {
	if !netProfit.IsPositive() {
		return nil
	}
	monthly := netProfit.Div(decimal.NewFromInt(int64(cfg.DurationMonths)))
	if !monthly.IsPositive() {
		return nil
	}
	v, _ := cfg.TotalAmount.Div(monthly).Float64()
	return &v
}

func (e *Engine) assessRisk(cfg *ProjectConfig, margin float64) (RiskLevel, float64, []string) {
	var factors []string

	score, ok := baseRiskByType[cfg.ProjectType]
	if !ok {
		score = defaultBaseRisk
	}

	if cfg.DurationMonths > 12 {
		score += 0.2
		factors = append(factors, "Длительный проект (> 12 месяцев)")
	} else if cfg.DurationMonths > 6 {
		score += 0.1
		factors = append(factors, "Проект средней длительности (6-12 месяцев)")
	}

	if margin < 10 {
		score += 0.3
		factors = append(factors, "Низкая маржа прибыли (< 10%)")
	} else if margin < 15 {
		score += 0.1
		factors = append(factors, "Средняя маржа прибыли (10-15%)")
	}

	if len(cfg.Team) > 8 {
		score += 0.1
		factors = append(factors, "Большая команда (> 8 человек)")
	} else if len(cfg.Team) < 3 {
		score += 0.2
		factors = append(factors, "Малая команда (< 3 человек)")
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}

	var level RiskLevel
	switch {
	case score >= 0.7:
		level = RiskCritical
	case score >= 0.5:
		level = RiskHigh
	case score >= 0.3:
		level = RiskMedium
	default:
		level = RiskLow
	}

	return level, score, factors
}

func (e *Engine) compareToMarket(projectType ProjectType, margin float64) MarketComparison {
	avg, ok := marketAverages[projectType]
	if !ok {
		avg = defaultMarketAverage
	}

	diff := margin - avg.Margin
	return MarketComparison{
		MarketAvgMargin:  avg.Margin,
		MarketAvgROI:     avg.ROI,
		ProfitMarginDiff: diff,
		Position:         marketPosition(margin, avg.Margin),
	}
}

// marketPosition maps the relative margin difference to a 5-tier label.
func marketPosition(ourMargin, marketAvg float64) string {
	diffPercent := 0.0
	if marketAvg > 0 {
		diffPercent = (ourMargin - marketAvg) / marketAvg * 100
	}

	switch {
	case diffPercent >= 20:
		return "Значительно выше рынка"
	case diffPercent >= 10:
		return "Выше рынка"
	case diffPercent >= -10:
		return "На уровне рынка"
	case diffPercent >= -20:
		return "Ниже рынка"
	default:
		return "Значительно ниже рынка"
	}
}
