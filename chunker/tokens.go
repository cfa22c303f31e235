package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts embedding-model tokens in text.
type TokenCounter interface {
	Count(text string) int
}

// WordTokenCounter approximates token counts with whitespace-separated words.
type WordTokenCounter struct{}

// NewWordTokenCounter creates a word-based token counter.
func NewWordTokenCounter() *WordTokenCounter {
	return &WordTokenCounter{}
}

// Count returns the number of whitespace-separated words.
func (c *WordTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter counts tokens with the tiktoken library.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a token counter for the given encoding, for
// example "cl100k_base".
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %q: %w", encoding, err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the exact token count for the encoding.
func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}
