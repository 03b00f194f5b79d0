// Package extractor turns an uploaded file into the single
// concatenated text string the ingestion pipeline consumes, preserving
// page boundaries as offsets for PDFs.
package extractor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageOffset records where a page starts in the concatenated text.
type PageOffset struct {
	Page   int
	Offset int
}

// ExtractFile dispatches on file extension: PDFs go through the PDF
// reader, anything else is read as plain text.
func ExtractFile(path string) (string, []PageOffset, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ExtractPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), []PageOffset{{Page: 1, Offset: 0}}, nil
}

// ExtractPDF returns the page-ordered plain text of a PDF along with
// the starting offset of each page. Pages that fail to decode are
// skipped with a warning rather than failing the document.
func ExtractPDF(path string) (string, []PageOffset, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var (
		b       strings.Builder
		offsets []PageOffset
	)

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("warning: skipping page %d of %s: %v", i, path, err)
			continue
		}

		offsets = append(offsets, PageOffset{Page: i, Offset: b.Len()})
		b.WriteString(text)
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return "", nil, fmt.Errorf("no text extracted from pdf")
	}
	return b.String(), offsets, nil
}
