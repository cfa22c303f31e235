// Package chunker splits extracted document text into overlapping windows
// sized for embedding.
//
// The chunker slides a fixed-size rune window over the text with a small
// overlap between consecutive chunks, so sentences cut at a boundary still
// appear intact in one of the neighbors. Whitespace-only windows are dropped
// and a hard cap bounds the number of chunks per document.
//
// Token counts are attached to each chunk for budget accounting, using
// tiktoken when the encoding is available and a word count otherwise.
package chunker
