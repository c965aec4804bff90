package service

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// PageExtractor pulls per-page text out of a raw downloaded document.
type PageExtractor interface {
	ExtractPages(data []byte) ([]string, error)
}

// PDFExtractor extracts text from PDF bytes. The underlying library reads
// from a file path, so the bytes are staged in a temporary file that is
// removed on every exit path.
type PDFExtractor struct{}

// ExtractPages returns the plain text of each page, in page order.
func (PDFExtractor) ExtractPages(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "ingest-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	f, reader, err := pdf.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}
