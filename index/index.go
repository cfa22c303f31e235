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


package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/storage"
)

const (
	defaultM        = 16
	defaultEfSearch = 20
	defaultMl       = 0.25
)

// ErrDimensionMismatch indicates a vector whose dimensionality does not match
// the index.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// VectorIndex is an in-memory HNSW index over chunk embeddings.
//
// Deletions are lazy: removed chunks are dropped from the ID mappings but
// their nodes stay in the graph until the index is rebuilt. Search results
// skip orphaned nodes.
type VectorIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]

	// dimensions is fixed by the first vector added.
	dimensions int

	idMap   map[core.ID]uint64
	keyMap  map[uint64]core.ID
	nextKey uint64

	logger *slog.Logger
}

// Stats reports index occupancy. Orphans are graph nodes left behind by lazy
// deletion; a rebuild reclaims them.
type Stats struct {
	ValidIDs   int
	GraphNodes int
	Orphans    int
}

// New creates an empty vector index. The dimensionality is fixed by the first
// vector added.
func New(logger *slog.Logger) *VectorIndex {
	if logger == nil {
		logger = slog.Default()
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = defaultM
	graph.EfSearch = defaultEfSearch
	graph.Ml = defaultMl

	return &VectorIndex{
		graph:  graph,
		idMap:  make(map[core.ID]uint64),
		keyMap: make(map[uint64]core.ID),
		logger: logger.With("component", "vector_index"),
	}
}

// Add inserts or replaces the vector for a chunk. Replacement uses lazy
// deletion: the old graph node is orphaned rather than removed.
func (idx *VectorIndex) Add(id core.ID, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("cannot index empty vector for chunk %d", id)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimensions == 0 {
		idx.dimensions = len(vector)
	} else if len(vector) != idx.dimensions {
		return ErrDimensionMismatch{Expected: idx.dimensions, Got: len(vector)}
	}

	if existingKey, exists := idx.idMap[id]; exists {
		delete(idx.keyMap, existingKey)
		delete(idx.idMap, id)
	}

	key := idx.nextKey
	idx.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalizeVector(vec)

	idx.graph.Add(hnsw.MakeNode(key, vec))
	idx.idMap[id] = key
	idx.keyMap[key] = id

	return nil
}

// AddBatch indexes a set of chunks. It stops at the first failure.
func (idx *VectorIndex) AddBatch(ids []core.ID, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	for i, id := range ids {
		if err := idx.Add(id, vectors[i]); err != nil {
			return err
		}
	}
	return nil
}

// Search returns up to k chunk matches ranked by cosine similarity to the
// query vector. Orphaned nodes are skipped, so fewer than k matches may be
// returned even when the graph holds more nodes.
func (idx *VectorIndex) Search(query []float32, k int) ([]core.SimilarityMatch, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph.Len() == 0 {
		return nil, nil
	}
	if idx.dimensions != 0 && len(query) != idx.dimensions {
		return nil, ErrDimensionMismatch{Expected: idx.dimensions, Got: len(query)}
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeVector(normalized)

	// Over-fetch to compensate for orphans left by lazy deletion.
	fetch := k
	if orphans := idx.graph.Len() - len(idx.idMap); orphans > 0 {
		fetch += orphans
	}

	nodes := idx.graph.Search(normalized, fetch)

	matches := make([]core.SimilarityMatch, 0, k)
	for _, node := range nodes {
		id, exists := idx.keyMap[node.Key]
		if !exists {
			continue
		}

		distance := idx.graph.Distance(normalized, node.Value)
		matches = append(matches, core.SimilarityMatch{
			ChunkId: id,
			Score:   1 - distance,
		})
		if len(matches) == k {
			break
		}
	}

	return matches, nil
}

// Remove drops chunks from the index. Missing IDs are ignored.
func (idx *VectorIndex) Remove(ids ...core.ID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, id := range ids {
		if key, exists := idx.idMap[id]; exists {
			delete(idx.keyMap, key)
			delete(idx.idMap, id)
		}
	}
}

// Contains reports whether a chunk is indexed.
func (idx *VectorIndex) Contains(id core.ID) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, exists := idx.idMap[id]
	return exists
}

// Len returns the number of indexed chunks, excluding orphans.
func (idx *VectorIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.idMap)
}

// Stats returns occupancy counters for rebuild decisions.
func (idx *VectorIndex) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return Stats{
		ValidIDs:   len(idx.idMap),
		GraphNodes: idx.graph.Len(),
		Orphans:    idx.graph.Len() - len(idx.idMap),
	}
}

// Load rebuilds the index from every chunk in the repository. Chunks without
// embeddings are skipped. It returns the number of chunks indexed.
func (idx *VectorIndex) Load(ctx context.Context, chunks storage.ChunkRepository) (int, error) {
	loaded := 0
	err := chunks.ForEachChunk(ctx, func(chunk *core.Chunk) error {
		if len(chunk.Vector) == 0 {
			idx.logger.Warn("skipping chunk without embedding", "chunk_id", chunk.Id)
			return nil
		}
		if err := idx.Add(chunk.Id, chunk.Vector); err != nil {
			return fmt.Errorf("failed to index chunk %d: %w", chunk.Id, err)
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, err
	}

	idx.logger.Info("vector index loaded", "chunks", loaded)
	return loaded, nil
}

// normalizeVector scales a vector to unit length in place. Zero vectors are
// left unchanged.
func normalizeVector(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range v {
		v[i] /= norm
	}
}
