// Package export writes tender data to files: Excel summaries and raw HTML
// snapshots, one directory per registration number.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/tealeg/xlsx/v2"
)

// Exporter writes tender artifacts under a base directory.
type Exporter struct {
	BaseDir string
}

func NewExporter(baseDir string) *Exporter {
	if baseDir == "" {
		baseDir = "results"
	}
	return &Exporter{BaseDir: baseDir}
}

// tenderDir returns (and creates) the per-tender output directory.
func (e *Exporter) tenderDir(regNumber string) (string, error) {
	dir := filepath.Join(e.BaseDir, regNumber)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// WriteExcel writes a two-column parameter sheet for the tender and returns
// the file path.
func (e *Exporter) WriteExcel(t *models.Tender) (string, error) {
	dir, err := e.tenderDir(t.RegNumber)
	if err != nil {
		return "", err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Тендер")
	if err != nil {
		return "", fmt.Errorf("add sheet: %w", err)
	}

	addRow := func(name, value string) {
		row := sheet.AddRow()
		row.AddCell().SetString(name)
		row.AddCell().SetString(value)
	}

	addRow("Параметр", "Значение")
	addRow("Реестровый номер", t.RegNumber)
	addRow("Наименование", t.Title)
	addRow("Заказчик", t.Customer)
	addRow("Начальная цена", t.InitialPrice.StringFixed(2))
	if t.WinnerPrice != nil {
		addRow("Цена победителя", t.WinnerPrice.StringFixed(2))
	}
	addRow("Статус", string(t.Status))
	addRow("Тип закупки", string(t.TenderType))
	if t.ApplicationDeadline != nil {
		addRow("Срок подачи заявок", t.ApplicationDeadline.Format("02.01.2006 15:04"))
	}
	if t.ContractExecutionDeadline != nil {
		addRow("Срок исполнения контракта", t.ContractExecutionDeadline.Format("02.01.2006"))
	}
	addRow("Документов", fmt.Sprintf("%d", len(t.Documents)))
	addRow("Участников", fmt.Sprintf("%d", len(t.Participants)))
	addRow("Ссылка", t.SourceURL)

	path := filepath.Join(dir, t.RegNumber+".xlsx")
	if err := f.Save(path); err != nil {
		return "", fmt.Errorf("save xlsx: %w", err)
	}
	return path, nil
}
