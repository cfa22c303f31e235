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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest input accepted by extractors.
const MaxFileSize = 50 << 20 // 50 MiB

// Result holds the text recovered from a file.
type Result struct {
	// Text is the concatenated plain text of the file, pages in order.
	Text string

	// PageCount is the number of pages in the source. Always 1 for plain
	// text inputs.
	PageCount int
}

// Extractor recovers plain text from a file's raw bytes.
type Extractor interface {
	// Extract returns the plain text of data. name is used only for
	// logging. Returns ErrFileTooLarge when data exceeds MaxFileSize and
	// ErrEmptyExtraction when no text can be recovered.
	Extract(ctx context.Context, data []byte, name string) (*Result, error)
}

// ForFile returns an extractor for the file's extension, or
// ErrUnsupportedFormat. Supported extensions are .pdf and .txt.
func ForFile(name string, logger *slog.Logger) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return NewPDFExtractor(logger), nil
	case ".txt":
		return NewTextExtractor(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}
