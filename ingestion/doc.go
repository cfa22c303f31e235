// Package ingestion provides pipeline orchestration for processing documents.
//
// The Pipeline type manages the ingestion workflow for uploaded files:
//   - Deduplicating uploads by content hash
//   - Extracting plain text
//   - Splitting text into overlapping chunks
//   - Generating embeddings in concurrent batches
//   - Persisting the document and its chunks
//   - Registering chunk vectors with the in-memory vector index
//
// Embedding batches run concurrently on a worker pool. Ingestion is
// synchronous: when Ingest returns, the document is queryable.
package ingestion
