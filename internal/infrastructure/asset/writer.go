package asset

import (
	"os"
	"path/filepath"
	"strings"
)

// FSWriter archives generated reports on the local filesystem and returns the
// URL they are served under.
type FSWriter struct {
	ReportsDir    string
	PublicBaseURL string
}

func NewFSWriter(reportsDir string, publicBaseURL string) *FSWriter {
	return &FSWriter{ReportsDir: reportsDir, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (w *FSWriter) WriteReport(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(w.ReportsDir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Base(filename)
	out := filepath.Join(w.ReportsDir, name)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", err
	}
	return w.buildURL("/reports/" + name), nil
}

func (w *FSWriter) buildURL(path string) string {
	if w.PublicBaseURL == "" {
		return path
	}
	return w.PublicBaseURL + path
}
