package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// TextExtractor passes plain text files through unchanged.
type TextExtractor struct {
	logger *slog.Logger
}

// NewTextExtractor creates a plain text extractor.
func NewTextExtractor(logger *slog.Logger) *TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExtractor{
		logger: logger.With("component", "text_extractor"),
	}
}

// Extract returns the file contents as-is. Invalid UTF-8 sequences are
// replaced with the replacement character.
func (e *TextExtractor) Extract(ctx context.Context, data []byte, name string) (*Result, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyExtraction, name)
	}

	return &Result{Text: text, PageCount: 1}, nil
}
