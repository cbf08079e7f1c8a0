package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/akozyrev/tenderwatch/internal/export"
)

var (
	detailsRefresh bool
	detailsExcel   bool
)

var detailsCmd = &cobra.Command{
	Use:   "details <reg-number>",
	Short: "Fetch the full record for a tender",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regNumber := args[0]
		svc := newSearchService()

		tender, err := svc.GetDetails(cmd.Context(), regNumber, detailsRefresh)
		if err != nil {
			return err
		}
		if tender == nil {
			fmt.Printf("No detail page found for %s.\n", regNumber)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Параметр", "Значение"})
		t.AppendRow(table.Row{"Реестровый номер", tender.RegNumber})
		t.AppendRow(table.Row{"Наименование", shorten(tender.Title, 80)})
		t.AppendRow(table.Row{"Заказчик", shorten(tender.Customer, 80)})
		t.AppendRow(table.Row{"Начальная цена", tender.InitialPrice.StringFixed(2)})
		t.AppendRow(table.Row{"Статус", tender.Status})
		if tender.ApplicationDeadline != nil {
			t.AppendRow(table.Row{"Срок подачи заявок", tender.ApplicationDeadline.Format("02.01.2006 15:04")})
		}
		t.AppendRow(table.Row{"Документов", len(tender.Documents)})
		t.AppendRow(table.Row{"Участников", len(tender.Participants)})
		t.AppendRow(table.Row{"Ссылка", tender.SourceURL})
		t.Render()

		if len(tender.Documents) > 0 {
			dt := table.NewWriter()
			dt.SetOutputMirror(os.Stdout)
			dt.AppendHeader(table.Row{"#", "Документ", "URL"})
			for i, doc := range tender.Documents {
				dt.AppendRow(table.Row{i + 1, shorten(doc.Name, 60), doc.URL})
			}
			dt.Render()
		}

		if detailsExcel {
			exp := export.NewExporter(cfg.Files.ResultsDir)
			path, err := exp.WriteExcel(tender)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", path)
		}
		return nil
	},
}

func init() {
	detailsCmd.Flags().BoolVar(&detailsRefresh, "refresh", false, "ignore the stored record and re-fetch")
	detailsCmd.Flags().BoolVar(&detailsExcel, "excel", false, "write an Excel summary under the results directory")
	rootCmd.AddCommand(detailsCmd)
}
