package econ

// DefaultTeamTemplates are the stock team compositions offered by the UI.
// Shares in each template sum to under 1.0 so overheads and profit fit.
var DefaultTeamTemplates = map[string]map[string]TeamRole{
	"standard_architecture": {
		"ГИП":         {Name: "ГИП", Percentage: 0.15, HourlyRate: 3000, HoursPerMonth: 80},
		"Архитектор":  {Name: "Архитектор", Percentage: 0.25, HourlyRate: 2500, HoursPerMonth: 120},
		"Конструктор": {Name: "Конструктор", Percentage: 0.12, HourlyRate: 2200, HoursPerMonth: 100},
		"Инженер ОВ":  {Name: "Инженер ОВ", Percentage: 0.08, HourlyRate: 2000, HoursPerMonth: 80},
		"Инженер ЭС":  {Name: "Инженер ЭС", Percentage: 0.08, HourlyRate: 2000, HoursPerMonth: 80},
		"Сметчик":     {Name: "Сметчик", Percentage: 0.12, HourlyRate: 1800, HoursPerMonth: 60},
	},
	"complex_project": {
		"ГИП":                {Name: "ГИП", Percentage: 0.12, HourlyRate: 3500, HoursPerMonth: 100},
		"Главный архитектор": {Name: "Главный архитектор", Percentage: 0.18, HourlyRate: 3000, HoursPerMonth: 120},
		"Архитектор":         {Name: "Архитектор", Percentage: 0.15, HourlyRate: 2500, HoursPerMonth: 100},
		"Конструктор":        {Name: "Конструктор", Percentage: 0.15, HourlyRate: 2200, HoursPerMonth: 120},
		"Инженер ОВ":         {Name: "Инженер ОВ", Percentage: 0.10, HourlyRate: 2000, HoursPerMonth: 100},
		"Инженер ЭС":         {Name: "Инженер ЭС", Percentage: 0.10, HourlyRate: 2000, HoursPerMonth: 100},
		"Инженер ВК":         {Name: "Инженер ВК", Percentage: 0.08, HourlyRate: 1900, HoursPerMonth: 80},
	},
	"small_project": {
		"ГИП":        {Name: "ГИП", Percentage: 0.20, HourlyRate: 2500, HoursPerMonth: 60},
		"Архитектор": {Name: "Архитектор", Percentage: 0.30, HourlyRate: 2200, HoursPerMonth: 80},
		"Инженер":    {Name: "Инженер", Percentage: 0.25, HourlyRate: 1800, HoursPerMonth: 100},
		"Сметчик":    {Name: "Сметчик", Percentage: 0.15, HourlyRate: 1600, HoursPerMonth: 40},
	},
}

// TeamTemplate returns a copy of the named template so callers can tweak
// shares without touching the stock set.
func TeamTemplate(name string) (map[string]TeamRole, bool) {
	tpl, ok := DefaultTeamTemplates[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]TeamRole, len(tpl))
	for k, v := range tpl {
		out[k] = v
	}
	return out, true
}

// TemplateNames lists the available team templates.
func TemplateNames() []string {
	names := make([]string, 0, len(DefaultTeamTemplates))
	for name := range DefaultTeamTemplates {
		names = append(names, name)
	}
	return names
}
