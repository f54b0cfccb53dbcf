package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextExtractor reads the text out of one document.
type TextExtractor interface {
	// ExtractText returns the text of data. name is used for error messages
	// and type detection only.
	ExtractText(ctx context.Context, name string, data []byte) (string, error)
}

// PlainText passes text files through, replacing invalid UTF-8.
type PlainText struct{}

var _ TextExtractor = PlainText{}

// ExtractText implements TextExtractor.
func (PlainText) ExtractText(_ context.Context, _ string, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// Fallback tries Primary and uses Secondary when Primary yields only
// whitespace.
type Fallback struct {
	Primary   TextExtractor
	Secondary TextExtractor
}

// ExtractText implements TextExtractor.
func (f Fallback) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	text, err := f.Primary.ExtractText(ctx, name, data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	fallback, ferr := f.Secondary.ExtractText(ctx, name, data)
	if ferr != nil {
		if err != nil {
			return "", fmt.Errorf("%w (after %v)", ferr, err)
		}
		return "", ferr
	}
	return fallback, nil
}

// pageMarker precedes each page's text.
func pageMarker(n int) string {
	return fmt.Sprintf("--- Page %d ---\n", n)
}
