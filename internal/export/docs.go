package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// safeFilename makes a portal document name usable as a filename. Portal
// names carry slashes and quotes routinely.
func safeFilename(name string) string {
	name = strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(name, "_"))
	if name == "" || name == "." || name == ".." {
		name = "document"
	}
	if runes := []rune(name); len(runes) > 120 {
		name = string(runes[:120])
	}
	return name
}

// WriteDocument stores a downloaded attachment in the tender's directory
// and returns the file path.
func (e *Exporter) WriteDocument(regNumber, filename string, content []byte) (string, error) {
	dir, err := e.tenderDir(regNumber)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, safeFilename(filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}
