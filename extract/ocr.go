// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

const (
	pdftoppmCommand  = "pdftoppm"
	tesseractCommand = "tesseract"

	// DefaultDPI is the rasterization resolution used for OCR.
	DefaultDPI = 300
)

// OCR rasterizes PDF pages with pdftoppm and recognizes them with tesseract.
type OCR struct {
	runner   CommandRunner
	dpi      int
	language string
	tempDir  string
	logger   *slog.Logger
}

var _ TextExtractor = (*OCR)(nil)

// OCROption configures an OCR extractor.
type OCROption func(*OCR)

// WithDPI sets the rasterization resolution. Non-positive values are ignored.
func WithDPI(dpi int) OCROption {
	return func(o *OCR) {
		if dpi > 0 {
			o.dpi = dpi
		}
	}
}

// WithLanguage passes a tesseract language code such as "eng".
func WithLanguage(lang string) OCROption {
	return func(o *OCR) {
		o.language = lang
	}
}

// WithTempDir sets the parent directory for per-document scratch space.
func WithTempDir(dir string) OCROption {
	return func(o *OCR) {
		o.tempDir = dir
	}
}

// WithOCRLogger sets the logger.
func WithOCRLogger(logger *slog.Logger) OCROption {
	return func(o *OCR) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOCR creates an OCR extractor using runner for the external tools.
func NewOCR(runner CommandRunner, opts ...OCROption) (*OCR, error) {
	if runner == nil {
		return nil, ErrRunnerRequired
	}
	o := &OCR{
		runner: runner,
		dpi:    DefaultDPI,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "ocr")
	return o, nil
}

// ExtractText implements TextExtractor.
func (o *OCR) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	dir, err := os.MkdirTemp(o.tempDir, "circulars-ocr-*")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, name, err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, name, err)
	}

	prefix := filepath.Join(dir, "page")
	if _, err := o.runner.Run(ctx, pdftoppmCommand, "-r", strconv.Itoa(o.dpi), "-png", input, prefix); err != nil {
		return "", fmt.Errorf("%w: %s: rasterize: %w", ErrExtraction, name, err)
	}

	pages, err := pageImages(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, name, err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: %s: no pages rendered", ErrExtraction, name)
	}

	var sb strings.Builder
	for i, page := range pages {
		args := []string{page.path, "stdout"}
		if o.language != "" {
			args = append(args, "-l", o.language)
		}
		out, err := o.runner.Run(ctx, tesseractCommand, args...)
		if err != nil {
			return "", fmt.Errorf("%w: %s: page %d: %w", ErrExtraction, name, page.number, err)
		}
		sb.WriteString(pageMarker(i + 1))
		sb.Write(out)
		sb.WriteString("\n")
	}

	o.logger.Debug("ocr complete", "file", name, "pages", len(pages))
	return sb.String(), nil
}

type pageImage struct {
	number int
	path   string
}

// pageImages lists pdftoppm output in page order. pdftoppm zero-pads page
// numbers to the width of the page count, so names are sorted numerically.
func pageImages(dir string) ([]pageImage, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	pages := make([]pageImage, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".png")
		n, err := strconv.Atoi(strings.TrimPrefix(base, "page-"))
		if err != nil {
			continue
		}
		pages = append(pages, pageImage{number: n, path: m})
	}
	slices.SortFunc(pages, func(a, b pageImage) int {
		return a.number - b.number
	})
	return pages, nil
}
