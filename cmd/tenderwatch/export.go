package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akozyrev/tenderwatch/internal/export"
)

var exportNoHTML bool

var exportCmd = &cobra.Command{
	Use:   "export <reg-number>",
	Short: "Fetch a tender and write its Excel summary and page snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regNumber := args[0]
		svc := newSearchService()

		tender, page, err := svc.Refresh(cmd.Context(), regNumber)
		if err != nil {
			return err
		}
		if tender == nil {
			fmt.Printf("No detail page found for %s.\n", regNumber)
			return nil
		}

		exp := export.NewExporter(cfg.Files.ResultsDir)
		path, err := exp.WriteExcel(tender)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)

		if !exportNoHTML && len(page) > 0 {
			path, err := exp.WriteHTMLSnapshot(regNumber, page)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", path)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportNoHTML, "no-html", false, "skip the raw page snapshot")
	rootCmd.AddCommand(exportCmd)
}
