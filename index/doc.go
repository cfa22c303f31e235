// Package index provides an in-memory approximate nearest neighbor index
// over chunk embedding vectors.
//
// The index wraps a hierarchical navigable small world (HNSW) graph and maps
// chunk identifiers to internal graph keys. It is rebuilt from the chunk
// repository on startup and kept in sync as documents are ingested and
// deleted. Searches return chunk identifiers ranked by cosine similarity;
// callers hydrate full chunks from storage.
//
// All methods are safe for concurrent use.
package index
