package econ

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewProjectConfigValidation(t *testing.T) {
	validTeam := map[string]TeamRole{
		"ПМ": {Name: "ПМ", Percentage: 0.3},
	}

	tests := []struct {
		name    string
		amount  string
		months  int
		team    map[string]TeamRole
		wantErr string
	}{
		{"valid", "1000000", 6, validTeam, ""},
		{"zero amount", "0", 6, validTeam, "must be positive"},
		{"negative amount", "-5", 6, validTeam, "must be positive"},
		{"zero duration", "1000000", 0, validTeam, "positive number of months"},
		{
			"team over 100 percent", "1000000", 6,
			map[string]TeamRole{
				"a": {Name: "a", Percentage: 0.6},
				"b": {Name: "b", Percentage: 0.5},
			},
			"exceeds 100%",
		},
		{
			"role percentage out of range", "1000000", 6,
			map[string]TeamRole{"a": {Name: "a", Percentage: 1.5}},
			"between 0 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProjectConfig("p", d(tt.amount), tt.months, TypeArchitecture, tt.team, nil, nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewProjectConfigDefaultsMaps(t *testing.T) {
	cfg, err := NewProjectConfig("p", d("100"), 1, TypeArchitecture, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OverheadCosts == nil || cfg.Taxes == nil {
		t.Error("nil maps should be replaced with empty maps")
	}
}

func TestNewTeamRole(t *testing.T) {
	if _, err := NewTeamRole("ПМ", 0.5); err != nil {
		t.Errorf("valid role: %v", err)
	}
	if _, err := NewTeamRole("ПМ", -0.1); err == nil {
		t.Error("negative percentage should fail")
	}
	if _, err := NewTeamRole("ПМ", 1.01); err == nil {
		t.Error("percentage above 1 should fail")
	}
}

func TestProfitGrade(t *testing.T) {
	tests := []struct {
		margin float64
		want   string
	}{
		{25, "Отличная"},
		{20, "Отличная"},
		{19.9, "Хорошая"},
		{15, "Хорошая"},
		{14.9, "Удовлетворительная"},
		{10, "Удовлетворительная"},
		{9.9, "Низкая"},
		{5, "Низкая"},
		{4.9, "Убыточная"},
		{-10, "Убыточная"},
	}
	for _, tt := range tests {
		r := &EconomicsResult{ProfitMargin: tt.margin}
		if got := r.ProfitGrade(); got != tt.want {
			t.Errorf("margin %v: grade = %q, want %q", tt.margin, got, tt.want)
		}
	}
}

func TestTeamTemplateReturnsCopy(t *testing.T) {
	tpl, ok := TeamTemplate("standard_architecture")
	if !ok {
		t.Fatal("standard_architecture template missing")
	}
	for name := range tpl {
		tpl[name] = TeamRole{Name: name, Percentage: 0.99}
		break
	}

	again, _ := TeamTemplate("standard_architecture")
	for name, role := range again {
		if role.Percentage == 0.99 {
			t.Errorf("mutating a returned template leaked into the stock copy (role %s)", name)
		}
	}
}

func TestTemplatesStayWithinBudget(t *testing.T) {
	for _, name := range TemplateNames() {
		tpl, ok := TeamTemplate(name)
		if !ok {
			t.Fatalf("template %q listed but not found", name)
		}
		if _, err := NewProjectConfig("p", decimal.NewFromInt(1000000), 6, TypeArchitecture, tpl, nil, nil); err != nil {
			t.Errorf("template %q does not form a valid config: %v", name, err)
		}
	}
}
