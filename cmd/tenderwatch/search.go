package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/akozyrev/tenderwatch/internal/search"
)

var (
	searchLimit     int
	searchAttempts  int
	searchNoCache   bool
	searchStats     bool
	searchEnrich    bool
	searchPriceFrom string
	searchPriceTo   string
	searchDateFrom  string
	searchDateTo    string
	searchRegion    string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the portal for tenders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filters := models.SearchFilters{
			DateFrom: searchDateFrom,
			DateTo:   searchDateTo,
			Region:   searchRegion,
		}
		if searchPriceFrom != "" {
			p, err := decimal.NewFromString(searchPriceFrom)
			if err != nil {
				return fmt.Errorf("invalid --price-from: %w", err)
			}
			filters.PriceFrom = &p
		}
		if searchPriceTo != "" {
			p, err := decimal.NewFromString(searchPriceTo)
			if err != nil {
				return fmt.Errorf("invalid --price-to: %w", err)
			}
			filters.PriceTo = &p
		}

		criteria := models.SearchCriteria{
			Query:         args[0],
			Limit:         searchLimit,
			Filters:       filters,
			EnrichDetails: searchEnrich,
		}

		svc := newSearchService()
		ctx := cmd.Context()

		var results []models.SearchResult
		var err error
		if searchAttempts > 1 {
			results, err = svc.SearchWithRetry(ctx, criteria, searchAttempts)
		} else {
			results, err = svc.Search(ctx, criteria, !searchNoCache)
		}
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No tenders found.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Reg Number", "Title", "Customer", "Price", "Type", "Status"})
		for i, r := range results {
			t.AppendRow(table.Row{
				i + 1, r.RegNumber,
				shorten(r.Title, 50), shorten(r.Customer, 30),
				r.Price.StringFixed(2), r.TenderType, r.Status,
			})
		}
		t.Render()

		if searchStats {
			printStats(search.Stats(results))
		}
		return nil
	},
}

func printStats(stats models.SearchStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Total tenders", stats.TotalCount})
	t.AppendRow(table.Row{"Total value", stats.TotalValue.StringFixed(2)})
	t.AppendRow(table.Row{"Average value", stats.AverageValue.StringFixed(2)})
	t.AppendRow(table.Row{"Min value", stats.MinValue.StringFixed(2)})
	t.AppendRow(table.Row{"Max value", stats.MaxValue.StringFixed(2)})
	for typ, n := range stats.ByType {
		t.AppendRow(table.Row{fmt.Sprintf("Type %s", typ), n})
	}
	for status, n := range stats.ByStatus {
		t.AppendRow(table.Row{fmt.Sprintf("Status %s", status), n})
	}
	t.Render()
}

func shorten(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum results")
	searchCmd.Flags().IntVar(&searchAttempts, "attempts", 1, "retry attempts when the portal returns nothing")
	searchCmd.Flags().BoolVar(&searchNoCache, "no-cache", false, "bypass the result cache")
	searchCmd.Flags().BoolVar(&searchStats, "stats", false, "print aggregate statistics")
	searchCmd.Flags().BoolVar(&searchEnrich, "enrich", false, "fetch the detail page for every result")
	searchCmd.Flags().StringVar(&searchPriceFrom, "price-from", "", "minimum initial price")
	searchCmd.Flags().StringVar(&searchPriceTo, "price-to", "", "maximum initial price")
	searchCmd.Flags().StringVar(&searchDateFrom, "date-from", "", "publication date from (dd.mm.yyyy)")
	searchCmd.Flags().StringVar(&searchDateTo, "date-to", "", "publication date to (dd.mm.yyyy)")
	searchCmd.Flags().StringVar(&searchRegion, "region", "", "region filter")
	rootCmd.AddCommand(searchCmd)
}
