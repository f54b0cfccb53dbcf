package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText reads the embedded text layer of a PDF, page by page.
type PDFText struct{}

var _ TextExtractor = PDFText{}

// ExtractText implements TextExtractor. Pages whose text cannot be decoded
// are skipped; a file that cannot be opened is an error.
func (PDFText) ExtractText(ctx context.Context, name string, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s: %v", ErrExtraction, name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, name, err)
	}

	var sb strings.Builder
	for n := 1; n <= reader.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageMarker(n))
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
