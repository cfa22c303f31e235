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


package chunker

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	// DefaultChunkSize is the window length in runes.
	DefaultChunkSize = 300

	// DefaultOverlap is how many runes consecutive windows share.
	DefaultOverlap = 20

	// DefaultMaxChunks caps how many chunks a single document may produce.
	DefaultMaxChunks = 1000

	// defaultEncoding is the tiktoken encoding used for token counts.
	defaultEncoding = "cl100k_base"
)

// Chunk is one window of document text.
type Chunk struct {
	// Text is the window contents.
	Text string

	// TokenCount is the token count of Text under the configured counter.
	TokenCount int
}

// Chunker splits text into overlapping rune windows.
type Chunker struct {
	chunkSize int
	overlap   int
	maxChunks int
	counter   TokenCounter
	logger    *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the window length in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets how many runes consecutive windows share.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// WithMaxChunks caps the number of chunks produced per document.
func WithMaxChunks(max int) Option {
	return func(c *Chunker) {
		c.maxChunks = max
	}
}

// WithTokenCounter sets a custom token counter.
func WithTokenCounter(counter TokenCounter) Option {
	return func(c *Chunker) {
		c.counter = counter
	}
}

// New creates a chunker. Without options it uses the default window geometry
// and a tiktoken counter, falling back to word counting if the encoding
// cannot be loaded.
func New(logger *slog.Logger, opts ...Option) (*Chunker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		maxChunks: DefaultMaxChunks,
		logger:    logger.With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", c.chunkSize)
	}
	if c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", c.chunkSize, c.overlap)
	}
	if c.maxChunks <= 0 {
		return nil, fmt.Errorf("max chunks must be positive, got %d", c.maxChunks)
	}

	if c.counter == nil {
		counter, err := NewTikTokenCounter(defaultEncoding)
		if err != nil {
			c.logger.Warn("tiktoken encoding unavailable, falling back to word counting",
				"encoding", defaultEncoding,
				"error", err)
			c.counter = NewWordTokenCounter()
		} else {
			c.counter = counter
		}
	}

	return c, nil
}

// Split produces overlapping windows over text. Whitespace-only windows are
// dropped. Output is truncated at the max chunk cap.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap

	chunks := make([]Chunk, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, Chunk{
				Text:       window,
				TokenCount: c.counter.Count(window),
			})
			if len(chunks) == c.maxChunks {
				c.logger.Warn("document truncated at chunk cap", "max_chunks", c.maxChunks)
				break
			}
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}
