package econ

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProjectType drives the base-risk and market-average tables.
type ProjectType string

const (
	TypeArchitecture   ProjectType = "architecture"
	TypeEngineering    ProjectType = "engineering"
	TypeLandscaping    ProjectType = "landscaping"
	TypeComplex        ProjectType = "complex"
	TypeRestoration    ProjectType = "restoration"
	TypeInfrastructure ProjectType = "infrastructure"
)

// RiskLevel is the qualitative bucket a risk score maps to.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// TeamRole is one position in the project team. Percentage is the role's
// share of the project total amount, in [0, 1].
type TeamRole struct {
	Name          string  `json:"name" yaml:"name"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
	HourlyRate    int     `json:"hourly_rate,omitempty" yaml:"hourly_rate,omitempty"`
	HoursPerMonth int     `json:"hours_per_month,omitempty" yaml:"hours_per_month,omitempty"`
}

// NewTeamRole validates the percentage range at construction time.
func NewTeamRole(name string, percentage float64) (TeamRole, error) {
	if percentage < 0 || percentage > 1 {
		return TeamRole{}, fmt.Errorf("role %q: percentage must be between 0 and 1, got %v", name, percentage)
	}
	return TeamRole{Name: name, Percentage: percentage}, nil
}

// ProjectConfig describes the project whose economics are being estimated.
// Construct through NewProjectConfig: team percentages summing over 100%
// are a construction-time error, not a runtime warning.
type ProjectConfig struct {
	ProjectName    string                     `json:"project_name" yaml:"project_name"`
	TotalAmount    decimal.Decimal            `json:"total_amount" yaml:"total_amount"`
	DurationMonths int                        `json:"duration_months" yaml:"duration_months"`
	ProjectType    ProjectType                `json:"project_type" yaml:"project_type"`
	Team           map[string]TeamRole        `json:"team" yaml:"team"`
	OverheadCosts  map[string]decimal.Decimal `json:"overhead_costs" yaml:"overhead_costs"`
	Taxes          map[string]float64         `json:"taxes" yaml:"taxes"`
}

// NewProjectConfig validates amounts, duration, and the team share sum.
func NewProjectConfig(name string, totalAmount decimal.Decimal, durationMonths int, projectType ProjectType,
	team map[string]TeamRole, overheads map[string]decimal.Decimal, taxes map[string]float64) (*ProjectConfig, error) {

	if !totalAmount.IsPositive() {
		return nil, fmt.Errorf("total amount must be positive, got %s", totalAmount)
	}
	if durationMonths <= 0 {
		return nil, fmt.Errorf("duration must be a positive number of months, got %d", durationMonths)
	}

	totalPercentage := 0.0
	for roleName, role := range team {
		if role.Percentage < 0 || role.Percentage > 1 {
			return nil, fmt.Errorf("role %q: percentage must be between 0 and 1, got %v", roleName, role.Percentage)
		}
		totalPercentage += role.Percentage
	}
	if totalPercentage > 1.0 {
		return nil, fmt.Errorf("total team percentage exceeds 100%%: %.1f%%", totalPercentage*100)
	}

	if overheads == nil {
		overheads = map[string]decimal.Decimal{}
	}
	if taxes == nil {
		taxes = map[string]float64{}
	}

	return &ProjectConfig{
		ProjectName:    name,
		TotalAmount:    totalAmount,
		DurationMonths: durationMonths,
		ProjectType:    projectType,
		Team:           team,
		OverheadCosts:  overheads,
		Taxes:          taxes,
	}, nil
}

// MarketComparison relates the computed margin to the static per-type
// market averages.
type MarketComparison struct {
	MarketAvgMargin  float64 `json:"market_avg_profit_margin"`
	MarketAvgROI     float64 `json:"market_avg_roi"`
	ProfitMarginDiff float64 `json:"profit_margin_diff"`
	Position         string  `json:"market_position"`
}

// EconomicsResult is the immutable outcome of one Calculate call.
type EconomicsResult struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCosts   decimal.Decimal `json:"total_costs"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	ProfitMargin float64         `json:"profit_margin"`
	ROI          float64         `json:"roi"`

	PaybackMonths *float64 `json:"payback_period_months,omitempty"`

	TeamCosts     decimal.Decimal            `json:"team_costs"`
	OverheadCosts decimal.Decimal            `json:"overhead_costs"`
	TaxCosts      decimal.Decimal            `json:"tax_costs"`
	TeamBreakdown map[string]decimal.Decimal `json:"team_breakdown"`

	RiskLevel   RiskLevel `json:"risk_level"`
	RiskScore   float64   `json:"risk_score"`
	RiskFactors []string  `json:"risk_factors"`

	Market MarketComparison `json:"market_comparison"`
}

// IsProfitable reports whether the project nets a positive profit.
func (r *EconomicsResult) IsProfitable() bool {
	return r.NetProfit.IsPositive()
}

// ProfitGrade buckets the margin into a qualitative label.
func (r *EconomicsResult) ProfitGrade() string {
	switch {
	case r.ProfitMargin >= 20:
		return "Отличная"
	case r.ProfitMargin >= 15:
		return "Хорошая"
	case r.ProfitMargin >= 10:
		return "Удовлетворительная"
	case r.ProfitMargin >= 5:
		return "Низкая"
	default:
		return "Убыточная"
	}
}
