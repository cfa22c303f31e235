package index

import (
	"context"
	"errors"
	"testing"

	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/storage/badger"
)

func TestAddAndSearch(t *testing.T) {
	idx := New(nil)

	vectors := map[core.ID][]float32{
		1: {1, 0, 0},
		2: {0, 1, 0},
		3: {0.9, 0.1, 0},
	}
	for id, vec := range vectors {
		if err := idx.Add(id, vec); err != nil {
			t.Fatalf("Add(%d) failed: %v", id, err)
		}
	}

	if idx.Len() != 3 {
		t.Errorf("expected 3 indexed chunks, got %d", idx.Len())
	}

	matches, err := idx.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ChunkId != 1 {
		t.Errorf("expected chunk 1 as best match, got %d", matches[0].ChunkId)
	}
	if matches[1].ChunkId != 3 {
		t.Errorf("expected chunk 3 as second match, got %d", matches[1].ChunkId)
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("match scores not descending: %v then %v", matches[0].Score, matches[1].Score)
	}
	if matches[0].Score < 0.99 {
		t.Errorf("identical vector should score near 1, got %v", matches[0].Score)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New(nil)

	matches, err := idx.Search([]float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search on empty index failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches from empty index, got %d", len(matches))
	}
}

func TestDimensionMismatch(t *testing.T) {
	idx := New(nil)

	if err := idx.Add(1, []float32{1, 0, 0}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := idx.Add(2, []float32{1, 0})
	var dimErr ErrDimensionMismatch
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if dimErr.Expected != 3 || dimErr.Got != 2 {
		t.Errorf("unexpected mismatch detail: %+v", dimErr)
	}

	if _, err := idx.Search([]float32{1, 0}, 1); !errors.As(err, &dimErr) {
		t.Errorf("expected ErrDimensionMismatch from Search, got %v", err)
	}
}

func TestAddEmptyVector(t *testing.T) {
	idx := New(nil)

	if err := idx.Add(1, nil); err == nil {
		t.Error("expected error for empty vector")
	}
}

func TestReplaceExisting(t *testing.T) {
	idx := New(nil)

	if err := idx.Add(1, []float32{1, 0, 0}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := idx.Add(1, []float32{0, 1, 0}); err != nil {
		t.Fatalf("re-Add failed: %v", err)
	}

	if idx.Len() != 1 {
		t.Errorf("expected 1 indexed chunk after replace, got %d", idx.Len())
	}

	stats := idx.Stats()
	if stats.Orphans != 1 {
		t.Errorf("expected 1 orphan after replace, got %d", stats.Orphans)
	}

	matches, err := idx.Search([]float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ChunkId != 1 {
		t.Fatalf("expected replaced chunk 1 as match, got %v", matches)
	}
	if matches[0].Score < 0.99 {
		t.Errorf("expected replacement vector to match, score %v", matches[0].Score)
	}
}

func TestRemove(t *testing.T) {
	idx := New(nil)

	for id, vec := range map[core.ID][]float32{
		1: {1, 0, 0},
		2: {0, 1, 0},
	} {
		if err := idx.Add(id, vec); err != nil {
			t.Fatalf("Add(%d) failed: %v", id, err)
		}
	}

	idx.Remove(1)
	idx.Remove(99) // missing ID is a no-op

	if idx.Contains(1) {
		t.Error("chunk 1 should be removed")
	}
	if !idx.Contains(2) {
		t.Error("chunk 2 should remain")
	}
	if idx.Len() != 1 {
		t.Errorf("expected 1 indexed chunk, got %d", idx.Len())
	}

	matches, err := idx.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, m := range matches {
		if m.ChunkId == 1 {
			t.Error("removed chunk returned from search")
		}
	}
}

func TestAddBatch(t *testing.T) {
	idx := New(nil)

	err := idx.AddBatch(
		[]core.ID{1, 2, 3},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	)
	if err != nil {
		t.Fatalf("AddBatch failed: %v", err)
	}
	if idx.Len() != 3 {
		t.Errorf("expected 3 indexed chunks, got %d", idx.Len())
	}

	if err := idx.AddBatch([]core.ID{1}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestLoadFromRepository(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	doc := &core.Document{
		Name:        "load-test.pdf",
		ContentHash: 42,
		SizeBytes:   10,
		PageCount:   1,
	}
	if _, err := docRepo.AddDocument(ctx, doc); err != nil {
		t.Fatalf("failed to add document: %v", err)
	}

	chunks := []*core.Chunk{
		{DocumentId: doc.Id, Seq: 0, Contents: "first", Vector: []float32{1, 0, 0}},
		{DocumentId: doc.Id, Seq: 1, Contents: "second", Vector: []float32{0, 1, 0}},
		{DocumentId: doc.Id, Seq: 2, Contents: "no embedding yet"},
	}
	if _, err := chunkRepo.AddChunks(ctx, chunks...); err != nil {
		t.Fatalf("failed to add chunks: %v", err)
	}

	idx := New(nil)
	loaded, err := idx.Load(ctx, chunkRepo)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != 2 {
		t.Errorf("expected 2 chunks loaded, got %d", loaded)
	}
	if idx.Len() != 2 {
		t.Errorf("expected 2 indexed chunks, got %d", idx.Len())
	}

	matches, err := idx.Search([]float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ChunkId != chunks[1].Id {
		t.Fatalf("expected chunk %d as match, got %v", chunks[1].Id, matches)
	}
}
