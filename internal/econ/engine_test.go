package econ

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func mustConfig(t *testing.T, amount string, months int, projectType ProjectType,
	team map[string]TeamRole, overheads map[string]decimal.Decimal, taxes map[string]float64) *ProjectConfig {
	t.Helper()
	cfg, err := NewProjectConfig("Тестовый проект", d(amount), months, projectType, team, overheads, taxes)
	if err != nil {
		t.Fatalf("NewProjectConfig: %v", err)
	}
	return cfg
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateBasicScenario(t *testing.T) {
	cfg := mustConfig(t, "5000000", 6, TypeArchitecture,
		map[string]TeamRole{
			"ПМ": {Name: "ПМ", Percentage: 0.5},
		},
		map[string]decimal.Decimal{
			"Аренда": d("100000"),
		},
		map[string]float64{
			"Налог на прибыль": 0.2,
		},
	)

	r := NewEngine().Calculate(d("5000000"), cfg)

	if !r.TeamCosts.Equal(d("2500000")) {
		t.Errorf("TeamCosts = %s, want 2500000", r.TeamCosts)
	}
	if !r.OverheadCosts.Equal(d("100000")) {
		t.Errorf("OverheadCosts = %s, want 100000", r.OverheadCosts)
	}
	if !r.GrossProfit.Equal(d("2400000")) {
		t.Errorf("GrossProfit = %s, want 2400000", r.GrossProfit)
	}
	if !r.TaxCosts.Equal(d("480000")) {
		t.Errorf("TaxCosts = %s, want 480000", r.TaxCosts)
	}
	if !r.NetProfit.Equal(d("1920000")) {
		t.Errorf("NetProfit = %s, want 1920000", r.NetProfit)
	}
	if !r.TotalCosts.Equal(d("3080000")) {
		t.Errorf("TotalCosts = %s, want 3080000", r.TotalCosts)
	}
	if !almostEqual(r.ProfitMargin, 38.4) {
		t.Errorf("ProfitMargin = %v, want 38.4", r.ProfitMargin)
	}
	if r.PaybackMonths == nil {
		t.Fatal("PaybackMonths = nil, want 15.625")
	}
	if !almostEqual(*r.PaybackMonths, 15.625) {
		t.Errorf("PaybackMonths = %v, want 15.625", *r.PaybackMonths)
	}
	if !r.IsProfitable() {
		t.Error("IsProfitable() = false, want true")
	}

	if breakdown := r.TeamBreakdown["ПМ"]; !breakdown.Equal(d("2500000")) {
		t.Errorf("TeamBreakdown[ПМ] = %s, want 2500000", breakdown)
	}
}

func TestCalculateCostIdentity(t *testing.T) {
	cfg := mustConfig(t, "7500000", 9, TypeEngineering,
		map[string]TeamRole{
			"ГИП":       {Name: "ГИП", Percentage: 0.15},
			"Инженер":   {Name: "Инженер", Percentage: 0.25},
			"Чертёжник": {Name: "Чертёжник", Percentage: 0.1},
		},
		map[string]decimal.Decimal{
			"Аренда": d("250000"),
			"Софт":   d("80000"),
		},
		map[string]float64{
			"УСН": 0.06,
			"ФОТ": 0.15,
		},
	)

	r := NewEngine().Calculate(d("7500000"), cfg)

	sum := r.TeamCosts.Add(r.OverheadCosts).Add(r.TaxCosts)
	if !r.TotalCosts.Equal(sum) {
		t.Errorf("TotalCosts = %s, want team+overhead+tax = %s", r.TotalCosts, sum)
	}
	if !r.NetProfit.Equal(r.GrossProfit.Sub(r.TaxCosts)) {
		t.Errorf("NetProfit = %s, want gross - tax", r.NetProfit)
	}
}

func TestCalculateUnprofitable(t *testing.T) {
	cfg := mustConfig(t, "1000000", 3, TypeComplex,
		map[string]TeamRole{
			"ПМ":      {Name: "ПМ", Percentage: 0.6},
			"Инженер": {Name: "Инженер", Percentage: 0.4},
		},
		map[string]decimal.Decimal{
			"Аренда": d("500000"),
		},
		nil,
	)

	r := NewEngine().Calculate(d("1000000"), cfg)

	if r.NetProfit.IsPositive() {
		t.Errorf("NetProfit = %s, want negative", r.NetProfit)
	}
	if r.PaybackMonths != nil {
		t.Errorf("PaybackMonths = %v, want nil for loss-making project", *r.PaybackMonths)
	}
	if r.ProfitMargin >= 0 {
		t.Errorf("ProfitMargin = %v, want negative", r.ProfitMargin)
	}
	if r.IsProfitable() {
		t.Error("IsProfitable() = true, want false")
	}
}

func TestTaxesApplyIndependently(t *testing.T) {
	// Two taxes of 10% each must take 20% of gross profit total, not
	// 10% then 10% of the remainder.
	cfg := mustConfig(t, "1000000", 2, TypeArchitecture,
		nil,
		nil,
		map[string]float64{"a": 0.1, "b": 0.1},
	)

	r := NewEngine().Calculate(d("1000000"), cfg)
	if !r.TaxCosts.Equal(d("200000")) {
		t.Errorf("TaxCosts = %s, want 200000", r.TaxCosts)
	}
}

func TestAssessRisk(t *testing.T) {
	threeRoles := map[string]TeamRole{
		"a": {Name: "a", Percentage: 0.1},
		"b": {Name: "b", Percentage: 0.1},
		"c": {Name: "c", Percentage: 0.1},
	}

	tests := []struct {
		name      string
		cfg       *ProjectConfig
		margin    float64
		wantScore float64
		wantLevel RiskLevel
	}{
		{
			name:      "restoration base score",
			cfg:       mustConfig(t, "1000000", 3, TypeRestoration, threeRoles, nil, nil),
			margin:    20,
			wantScore: 0.7,
			wantLevel: RiskCritical,
		},
		{
			name:      "landscaping base score",
			cfg:       mustConfig(t, "1000000", 3, TypeLandscaping, threeRoles, nil, nil),
			margin:    20,
			wantScore: 0.2,
			wantLevel: RiskLow,
		},
		{
			name:      "unknown type uses default base",
			cfg:       mustConfig(t, "1000000", 3, ProjectType("unheard-of"), threeRoles, nil, nil),
			margin:    20,
			wantScore: 0.5,
			wantLevel: RiskHigh,
		},
		{
			name:      "long duration adds 0.2",
			cfg:       mustConfig(t, "1000000", 13, TypeLandscaping, threeRoles, nil, nil),
			margin:    20,
			wantScore: 0.4,
			wantLevel: RiskMedium,
		},
		{
			name:      "medium duration adds 0.1",
			cfg:       mustConfig(t, "1000000", 7, TypeLandscaping, threeRoles, nil, nil),
			margin:    20,
			wantScore: 0.3,
			wantLevel: RiskMedium,
		},
		{
			name:      "thin margin adds 0.3",
			cfg:       mustConfig(t, "1000000", 3, TypeLandscaping, threeRoles, nil, nil),
			margin:    5,
			wantScore: 0.5,
			wantLevel: RiskHigh,
		},
		{
			name:      "moderate margin adds 0.1",
			cfg:       mustConfig(t, "1000000", 3, TypeLandscaping, threeRoles, nil, nil),
			margin:    12,
			wantScore: 0.3,
			wantLevel: RiskMedium,
		},
		{
			name:      "small team adds 0.2",
			cfg:       mustConfig(t, "1000000", 3, TypeLandscaping, map[string]TeamRole{"a": {Name: "a", Percentage: 0.1}}, nil, nil),
			margin:    20,
			wantScore: 0.4,
			wantLevel: RiskMedium,
		},
		{
			name: "score clamps at 1.0",
			cfg: mustConfig(t, "1000000", 24, TypeRestoration,
				map[string]TeamRole{"a": {Name: "a", Percentage: 0.1}}, nil, nil),
			margin:    2,
			wantScore: 1.0,
			wantLevel: RiskCritical,
		},
	}

	e := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, score, _ := e.assessRisk(tt.cfg, tt.margin)
			if !almostEqual(score, tt.wantScore) {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if level != tt.wantLevel {
				t.Errorf("level = %s, want %s", level, tt.wantLevel)
			}
		})
	}
}

func TestMarketPosition(t *testing.T) {
	// Market average for architecture is 15%, so the tier boundaries in
	// absolute margin are 18, 16.5, 13.5, and 12.
	tests := []struct {
		margin float64
		want   string
	}{
		{18.0, "Значительно выше рынка"},
		{17.9, "Выше рынка"},
		{16.5, "Выше рынка"},
		{16.4, "На уровне рынка"},
		{13.5, "На уровне рынка"},
		{13.4, "Ниже рынка"},
		{12.0, "Ниже рынка"},
		{11.9, "Значительно ниже рынка"},
	}

	e := NewEngine()
	for _, tt := range tests {
		got := e.compareToMarket(TypeArchitecture, tt.margin)
		if got.Position != tt.want {
			t.Errorf("margin %.1f: position = %q, want %q", tt.margin, got.Position, tt.want)
		}
	}
}

func TestCompareToMarketUnknownType(t *testing.T) {
	got := NewEngine().compareToMarket(ProjectType("other"), 12.0)
	if got.MarketAvgMargin != 12.0 || got.MarketAvgROI != 20.0 {
		t.Errorf("unknown type averages = %v/%v, want 12/20", got.MarketAvgMargin, got.MarketAvgROI)
	}
	if got.Position != "На уровне рынка" {
		t.Errorf("position = %q, want На уровне рынка", got.Position)
	}
}
