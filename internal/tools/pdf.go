package tools

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFTool extracts plain text from local PDF files.
type PDFTool struct {
	MaxChars int
}

func NewPDFTool(maxChars int) *PDFTool {
	return &PDFTool{MaxChars: maxChars}
}

func (p *PDFTool) Name() string {
	return "pdf_reader"
}

// ExtractText never fails; unreadable files yield an "Error reading PDF" outcome.
func (p *PDFTool) ExtractText(path string) (out Outcome) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			out = failed("Error reading PDF", fmt.Errorf("malformed document: %v", r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return failed("Error reading PDF", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return failed("Error reading PDF", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return failed("Error reading PDF", err)
	}
	return Outcome{Text: Truncate(buf.String(), p.MaxChars)}
}
