package extract

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

// Mode selects how PDFs are read.
type Mode string

const (
	ModeOCR  Mode = "ocr"
	ModeText Mode = "text"
	ModeAuto Mode = "auto"
)

// ParseMode parses a mode name. The empty string selects ModeOCR.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeOCR:
		return ModeOCR, nil
	case ModeText:
		return ModeText, nil
	case ModeAuto:
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Registry dispatches to a TextExtractor by file extension.
type Registry struct {
	byExt map[string]TextExtractor
}

var _ TextExtractor = (*Registry)(nil)

// NewRegistry builds the standard registry: .txt as plain text and .pdf
// according to mode. runner is only required for modes that use OCR.
func NewRegistry(mode Mode, runner CommandRunner, opts ...OCROption) (*Registry, error) {
	var pdfExtractor TextExtractor
	switch mode {
	case ModeText:
		pdfExtractor = PDFText{}
	case ModeOCR, ModeAuto:
		ocr, err := NewOCR(runner, opts...)
		if err != nil {
			return nil, err
		}
		pdfExtractor = ocr
		if mode == ModeAuto {
			pdfExtractor = Fallback{Primary: PDFText{}, Secondary: ocr}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	r := &Registry{byExt: map[string]TextExtractor{}}
	r.Register(".txt", PlainText{})
	r.Register(".pdf", pdfExtractor)
	return r, nil
}

// Register maps an extension such as ".md" to an extractor.
func (r *Registry) Register(ext string, e TextExtractor) {
	r.byExt[normalizeExt(ext)] = e
}

// Supports reports whether name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, ok := r.byExt[normalizeExt(filepath.Ext(name))]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	return slices.Sorted(maps.Keys(r.byExt))
}

// ExtractText implements TextExtractor.
func (r *Registry) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	e, ok := r.byExt[normalizeExt(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	return e.ExtractText(ctx, name, data)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
