// Package extractor pulls plain text out of PDF files.
package extractor

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the text of a PDF document, one string per page.
type PDF struct{}

// NewPDF returns a PDF text extractor.
func NewPDF() *PDF { return &PDF{} }

// ExtractPages returns every page's text in document order. Pages whose
// content streams cannot be decoded yield an empty string instead of
// failing the whole document. Files that cannot be opened or parsed
// (including encrypted ones) return an error.
func (e *PDF) ExtractPages(path string) (pages []string, err error) {
	defer func() {
		// The pdf reader panics on some malformed documents.
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
