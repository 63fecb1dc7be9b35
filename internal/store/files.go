package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileWriter writes each report to its own text file.
type FileWriter struct {
	Dir string
}

func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{Dir: dir}
}

// ReportFilename is research_report_<YYYYMMDD_HHMMSS>.txt for the given time.
func ReportFilename(at time.Time) string {
	return "research_report_" + at.Format("20060102_150405") + ".txt"
}

// WriteReport writes the header and body to a temporary file and renames it
// into place, so an existing report is never left half-written.
func (w *FileWriter) WriteReport(topic, body string, at time.Time) (string, error) {
	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".research_report_*.tmp")
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := fmt.Fprintf(tmp, "Research Report: %s\nGenerated: %s\n%s\n\n%s",
		topic, at.Format(time.RFC3339), strings.Repeat("=", 80), body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	path := filepath.Join(dir, ReportFilename(at))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
