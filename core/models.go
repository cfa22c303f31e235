package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs, which is how
// repeat uploads of the same document are detected.
func IDFromContent(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document represents a source file that has been processed into chunks.
type Document struct {
	Id          ID
	Name        string
	ContentHash ID     // BLAKE2b hash of the raw file contents
	SizeBytes   int64  // Size of the source file
	PageCount   int    // Number of pages extracted (0 for non-paginated sources)
	ChunkCount  int    // Number of chunks produced during ingestion
	InsertedAt  time.Time
	UpdatedAt   time.Time
	Metadata    map[string]string // Optional metadata (e.g., "file_type", "file_path")
}

// Chunk represents a retrievable span of text from a document.
// The Vector field is populated during ingestion once the chunk is embedded.
type Chunk struct {
	Id         ID
	DocumentId ID
	Seq        int    // Position of the chunk within its document
	Contents   string
	TokenCount int       // Token count as measured by the chunker
	Vector     []float32 // Embedding vector for semantic search
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SimilarityMatch represents a chunk match from vector similarity search.
type SimilarityMatch struct {
	ChunkId ID
	Score   float32
}

// SearchResult represents a search result with the full chunk and relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// Role identifies the author of a conversation message.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents the model answering them.
	RoleAssistant
)

// Message is a single turn in a question-answering conversation.
type Message struct {
	Role     Role
	Contents string
	SentAt   time.Time
}
