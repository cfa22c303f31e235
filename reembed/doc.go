// Package reembed provides functionality for reembedding existing document
// chunks with new or updated embedding models.
//
// This package supports batch processing of chunks, progress tracking,
// retry logic with exponential backoff, and vector normalization to ensure
// compatibility with cosine similarity search. The in-memory vector index
// is refreshed as batches complete, so searches stay consistent with the
// new embedding space.
package reembed
