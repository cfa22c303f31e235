// Copyright 2025 Lamplight AI
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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

const (
	// pageBatchSize bounds how many pages are in flight per batch.
	pageBatchSize = 10

	// maxPageWorkers bounds concurrent page decoding within a batch.
	maxPageWorkers = 4
)

// PDFExtractor extracts text from PDF files page by page.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{
		logger: logger.With("component", "pdf_extractor"),
	}
}

// Extract decodes every page of the PDF. Pages are processed in batches of
// pageBatchSize with at most maxPageWorkers pages decoding concurrently, and
// the output preserves page order. A page that fails to decode contributes
// empty text.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, name string) (*Result, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", ErrEmptyExtraction, name)
	}

	pageTexts := make([]string, numPages)

	for start := 1; start <= numPages; start += pageBatchSize {
		end := start + pageBatchSize
		if end > numPages+1 {
			end = numPages + 1
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxPageWorkers)

		for pageNum := start; pageNum < end; pageNum++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				text, err := extractPageText(reader, pageNum)
				if err != nil {
					e.logger.Warn("failed to extract page text",
						"file", name,
						"page", pageNum,
						"error", err)
					return nil
				}
				pageTexts[pageNum-1] = text
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	for _, text := range pageTexts {
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	combined := sb.String()
	if strings.TrimSpace(combined) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyExtraction, name)
	}

	e.logger.Debug("extracted pdf text",
		"file", name,
		"pages", numPages,
		"bytes", len(combined))

	return &Result{Text: combined, PageCount: numPages}, nil
}

// extractPageText decodes a single page. The pdf library can panic on
// malformed content streams, so decoding is isolated behind a recover.
func extractPageText(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic decoding page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	return page.GetPlainText(nil)
}
