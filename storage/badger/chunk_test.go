package badger

import (
	"context"
	"testing"

	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/storage"
)

func addTestDocument(t *testing.T, docRepo storage.DocumentRepository, name string) *core.Document {
	t.Helper()
	doc, err := docRepo.AddDocument(context.Background(), &core.Document{
		Name:        name,
		ContentHash: core.IDFromContent([]byte(name)),
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	return doc
}

func TestChunkBasics(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	doc := addTestDocument(t, docRepo, "chunks.pdf")

	chunks := []*core.Chunk{
		{DocumentId: doc.Id, Seq: 0, Contents: "First chunk of text"},
		{DocumentId: doc.Id, Seq: 1, Contents: "Second chunk of text"},
	}

	added, err := chunkRepo.AddChunks(ctx, chunks...)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(added))
	}
	for _, c := range added {
		if c.Id == 0 {
			t.Fatal("Expected non-zero chunk ID")
		}
	}

	retrieved, err := chunkRepo.GetChunk(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if retrieved.Contents != "First chunk of text" {
		t.Fatalf("Unexpected contents: %q", retrieved.Contents)
	}
}

func TestChunksByDocumentOrder(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	doc := addTestDocument(t, docRepo, "ordered.pdf")
	other := addTestDocument(t, docRepo, "other.pdf")

	// Insert out of order to exercise the index ordering
	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{DocumentId: doc.Id, Seq: 2, Contents: "third"},
		&core.Chunk{DocumentId: other.Id, Seq: 0, Contents: "unrelated"},
		&core.Chunk{DocumentId: doc.Id, Seq: 0, Contents: "first"},
		&core.Chunk{DocumentId: doc.Id, Seq: 1, Contents: "second"},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	results, err := chunkRepo.GetChunksByDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to get chunks by document: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(results))
	}
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Contents != want {
			t.Fatalf("Position %d: expected %q, got %q", i, want, results[i].Contents)
		}
	}
}

func TestDeleteChunksByDocument(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	doc := addTestDocument(t, docRepo, "doomed.pdf")
	keep := addTestDocument(t, docRepo, "kept.pdf")

	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{DocumentId: doc.Id, Seq: 0, Contents: "going away"},
		&core.Chunk{DocumentId: doc.Id, Seq: 1, Contents: "also going away"},
		&core.Chunk{DocumentId: keep.Id, Seq: 0, Contents: "staying"},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	deleted, err := chunkRepo.DeleteChunksByDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to delete chunks: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("Expected 2 deleted, got %d", deleted)
	}

	remaining, err := chunkRepo.GetChunksByDocument(ctx, keep.Id)
	if err != nil {
		t.Fatalf("Failed to get remaining chunks: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("Expected 1 remaining chunk, got %d", len(remaining))
	}
}

func TestFindSimilarChunks(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	doc := addTestDocument(t, docRepo, "vectors.pdf")

	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{DocumentId: doc.Id, Seq: 0, Contents: "exact match", Vector: []float32{1, 0, 0}},
		&core.Chunk{DocumentId: doc.Id, Seq: 1, Contents: "close match", Vector: []float32{0.9, 0.1, 0}},
		&core.Chunk{DocumentId: doc.Id, Seq: 2, Contents: "orthogonal", Vector: []float32{0, 1, 0}},
		&core.Chunk{DocumentId: doc.Id, Seq: 3, Contents: "no vector yet"},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	results, err := chunkRepo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.Contents != "exact match" {
		t.Fatalf("Expected best result 'exact match', got %q", results[0].Chunk.Contents)
	}
	if results[0].Score < results[1].Score {
		t.Fatal("Results not sorted by score descending")
	}
}

func TestForEachChunk(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	doc := addTestDocument(t, docRepo, "iterate.pdf")

	_, err = chunkRepo.AddChunks(ctx,
		&core.Chunk{DocumentId: doc.Id, Seq: 0, Contents: "a"},
		&core.Chunk{DocumentId: doc.Id, Seq: 1, Contents: "b"},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	count := 0
	err = chunkRepo.ForEachChunk(ctx, func(chunk *core.Chunk) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachChunk failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 chunks visited, got %d", count)
	}
}
