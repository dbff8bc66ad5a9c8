package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const pdfContentType = "application/pdf"

var pdfMagic = []byte("%PDF-")

// Extractor turns a document into the ordered text of its pages.
type Extractor interface {
	ExtractPages(ctx context.Context, content []byte) ([]string, error)
}

type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages reads every page's plain text. Pages without content yield an
// empty string so page numbers stay aligned.
func (e *PDFExtractor) ExtractPages(ctx context.Context, content []byte) (pages []string, err error) {
	// The reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf reader failed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}

func isPDF(fileName string, contentType string, content []byte) bool {
	if strings.HasPrefix(strings.ToLower(contentType), pdfContentType) {
		return true
	}
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}
	return bytes.HasPrefix(content, pdfMagic)
}
