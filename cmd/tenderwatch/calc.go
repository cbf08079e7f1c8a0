package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/akozyrev/tenderwatch/internal/econ"
)

var (
	calcName      string
	calcDuration  int
	calcType      string
	calcTemplate  string
	calcRoles     []string
	calcOverheads []string
	calcTaxes     []string
)

var calcCmd = &cobra.Command{
	Use:   "calc <amount>",
	Short: "Estimate project economics for a tender amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}

		team := map[string]econ.TeamRole{}
		if calcTemplate != "" {
			tpl, ok := econ.TeamTemplate(calcTemplate)
			if !ok {
				return fmt.Errorf("unknown template %q, available: %s",
					calcTemplate, strings.Join(econ.TemplateNames(), ", "))
			}
			team = tpl
		}
		for _, spec := range calcRoles {
			name, value, err := splitSpec(spec)
			if err != nil {
				return fmt.Errorf("invalid --role: %w", err)
			}
			pct, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid --role percentage %q: %w", value, err)
			}
			role, err := econ.NewTeamRole(name, pct)
			if err != nil {
				return err
			}
			team[name] = role
		}

		overheads := map[string]decimal.Decimal{}
		for _, spec := range calcOverheads {
			name, value, err := splitSpec(spec)
			if err != nil {
				return fmt.Errorf("invalid --overhead: %w", err)
			}
			d, err := decimal.NewFromString(value)
			if err != nil {
				return fmt.Errorf("invalid --overhead amount %q: %w", value, err)
			}
			overheads[name] = d
		}

		taxes := map[string]float64{}
		for _, spec := range calcTaxes {
			name, value, err := splitSpec(spec)
			if err != nil {
				return fmt.Errorf("invalid --tax: %w", err)
			}
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid --tax rate %q: %w", value, err)
			}
			taxes[name] = rate
		}

		cfg, err := econ.NewProjectConfig(calcName, amount, calcDuration,
			econ.ProjectType(calcType), team, overheads, taxes)
		if err != nil {
			return err
		}

		result := econ.NewEngine().Calculate(amount, cfg)
		printResult(result)
		return nil
	},
}

func printResult(r *econ.EconomicsResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Показатель", "Значение"})
	t.AppendRow(table.Row{"Выручка", r.TotalRevenue.StringFixed(2)})
	t.AppendRow(table.Row{"Затраты всего", r.TotalCosts.StringFixed(2)})
	t.AppendRow(table.Row{"Команда", r.TeamCosts.StringFixed(2)})
	t.AppendRow(table.Row{"Накладные", r.OverheadCosts.StringFixed(2)})
	t.AppendRow(table.Row{"Налоги", r.TaxCosts.StringFixed(2)})
	t.AppendRow(table.Row{"Валовая прибыль", r.GrossProfit.StringFixed(2)})
	t.AppendRow(table.Row{"Чистая прибыль", r.NetProfit.StringFixed(2)})
	t.AppendRow(table.Row{"Рентабельность", fmt.Sprintf("%.1f%% (%s)", r.ProfitMargin, r.ProfitGrade())})
	t.AppendRow(table.Row{"ROI", fmt.Sprintf("%.1f%%", r.ROI)})
	if r.PaybackMonths != nil {
		t.AppendRow(table.Row{"Окупаемость, мес", fmt.Sprintf("%.1f", *r.PaybackMonths)})
	}
	t.AppendRow(table.Row{"Уровень риска", r.RiskLevel})
	t.AppendRow(table.Row{"Оценка риска", fmt.Sprintf("%.2f", r.RiskScore)})
	for _, factor := range r.RiskFactors {
		t.AppendRow(table.Row{"Фактор риска", factor})
	}
	t.AppendRow(table.Row{"Позиция на рынке", r.Market.Position})
	t.Render()

	if len(r.TeamBreakdown) > 0 {
		bt := table.NewWriter()
		bt.SetOutputMirror(os.Stdout)
		bt.AppendHeader(table.Row{"Роль", "Стоимость"})
		names := make([]string, 0, len(r.TeamBreakdown))
		for name := range r.TeamBreakdown {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			bt.AppendRow(table.Row{name, r.TeamBreakdown[name].StringFixed(2)})
		}
		bt.Render()
	}
}

// splitSpec parses "name=value" flag arguments.
func splitSpec(spec string) (string, string, error) {
	name, value, ok := strings.Cut(spec, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", spec)
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), nil
}

func init() {
	calcCmd.Flags().StringVar(&calcName, "name", "Проект", "project name")
	calcCmd.Flags().IntVar(&calcDuration, "months", 6, "project duration in months")
	calcCmd.Flags().StringVar(&calcType, "type", string(econ.TypeArchitecture), "project type")
	calcCmd.Flags().StringVar(&calcTemplate, "template", "", "team template name")
	calcCmd.Flags().StringArrayVar(&calcRoles, "role", nil, "team role as name=percentage (0..1), repeatable")
	calcCmd.Flags().StringArrayVar(&calcOverheads, "overhead", nil, "overhead cost as name=amount, repeatable")
	calcCmd.Flags().StringArrayVar(&calcTaxes, "tax", nil, "tax as name=rate (0..1), repeatable")
	rootCmd.AddCommand(calcCmd)
}
