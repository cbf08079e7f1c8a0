package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akozyrev/tenderwatch/internal/export"
	"github.com/akozyrev/tenderwatch/internal/scrape"
)

var docsCmd = &cobra.Command{
	Use:   "docs <reg-number>",
	Short: "Download a tender's attachments and scan PDFs for deadlines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regNumber := args[0]
		client := newPortalClient()
		svc := newSearchServiceWith(client)

		tender, err := svc.GetDetails(cmd.Context(), regNumber, false)
		if err != nil {
			return err
		}
		if tender == nil {
			fmt.Printf("No detail page found for %s.\n", regNumber)
			return nil
		}
		if len(tender.Documents) == 0 {
			fmt.Printf("Tender %s lists no documents.\n", regNumber)
			return nil
		}

		exp := export.NewExporter(cfg.Files.ResultsDir)
		saved := 0
		for _, doc := range tender.Documents {
			content, err := client.DownloadDocument(cmd.Context(), doc)
			if err != nil {
				fmt.Printf("Skipping %s: %v\n", doc.Name, err)
				continue
			}

			filename := doc.OriginalFilename
			if filename == "" {
				filename = doc.Name
			}
			path, err := exp.WriteDocument(regNumber, filename, content)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", path)
			saved++

			if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
				deadlines, err := scrape.ScanDocumentDeadlines(content)
				if err != nil {
					fmt.Printf("  could not read PDF: %v\n", err)
					continue
				}
				for _, d := range deadlines {
					fmt.Printf("  deadline candidate: %s\n", d.Format("02.01.2006 15:04"))
				}
			}
		}

		fmt.Printf("Saved %d of %d documents.\n", saved, len(tender.Documents))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
