// Package pdftext extracts plain text from PDF documents for the recipe
// import pipeline.
package pdftext

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor reads the text content of a PDF, page by page.
type Extractor struct{}

// Extract returns the document's text with page order preserved and words
// joined by single spaces. Pages without extractable text contribute nothing.
func (Extractor) Extract(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	// Collapse all whitespace so the extractor's output is stable across
	// layout quirks in the source document.
	return strings.Join(strings.Fields(strings.Join(pages, " ")), " "), nil
}
