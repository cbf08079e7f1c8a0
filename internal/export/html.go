package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteHTMLSnapshot stores the raw detail page HTML next to the Excel
// summary, for manual inspection when extraction looks wrong.
func (e *Exporter) WriteHTMLSnapshot(regNumber string, html []byte) (string, error) {
	dir, err := e.tenderDir(regNumber)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, regNumber+".html")
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("write html snapshot: %w", err)
	}
	return path, nil
}
