package storage

import (
	"context"

	"github.com/lamplight-ai/paperchat/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// VectorSearcher performs exact similarity search over stored chunk vectors.
// This is the brute-force path: every stored vector is compared against the
// query. It is correct for any corpus size but linear in cost; the in-memory
// HNSW index is preferred when populated.
type VectorSearcher interface {
	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with cosine similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// DocumentRepository provides operations for managing processed documents.
type DocumentRepository interface {
	Repository

	// AddDocument adds a document to storage.
	// The document ID is its content hash; adding a document whose hash already
	// exists returns ErrDuplicateKey.
	// Sets InsertedAt/UpdatedAt timestamps.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument updates an existing document.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// DeleteDocument removes a document by ID.
	// Returns ErrNotFound if the document doesn't exist. Chunks are not
	// removed here; callers should delete them via ChunkRepository.
	DeleteDocument(ctx context.Context, id core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentByHash retrieves a document by its content hash.
	// Returns ErrNotFound if no document with that hash exists.
	GetDocumentByHash(ctx context.Context, hash core.ID) (*core.Document, error)

	// ListDocuments returns all documents, ordered by insertion time ascending.
	ListDocuments(ctx context.Context) ([]*core.Document, error)
}

// ChunkRepository provides operations for managing text chunks.
type ChunkRepository interface {
	Repository
	VectorSearcher

	// AddChunks adds one or more chunks to storage.
	// For chunks with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns the chunks with generated IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks belonging to a document.
	// Returns the number of chunks removed.
	DeleteChunksByDocument(ctx context.Context, documentId core.ID) (int, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks of a document ordered by Seq.
	GetChunksByDocument(ctx context.Context, documentId core.ID) ([]*core.Chunk, error)

	// ForEachChunk iterates over every stored chunk, calling fn for each.
	// Iteration stops on the first error from fn. Used to rebuild the
	// in-memory vector index at startup.
	ForEachChunk(ctx context.Context, fn func(chunk *core.Chunk) error) error
}
