package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamplight-ai/paperchat/ai/mock"
	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/index"
	"github.com/lamplight-ai/paperchat/storage"
	"github.com/lamplight-ai/paperchat/storage/badger"
)

func seedChunks(t *testing.T, n int) (storage.ChunkRepository, []*core.Chunk) {
	t.Helper()

	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ctx := context.Background()
	doc := &core.Document{Name: "reembed.pdf", ContentHash: 21, SizeBytes: 1, PageCount: 1}
	_, err = docRepo.AddDocument(ctx, doc)
	require.NoError(t, err)

	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			DocumentId: doc.Id,
			Seq:        i,
			Contents:   fmt.Sprintf("chunk number %d with some text", i),
			Vector:     []float32{9, 9, 9},
		}
	}
	_, err = chunkRepo.AddChunks(ctx, chunks...)
	require.NoError(t, err)

	return chunkRepo, chunks
}

func TestReembedder_Run(t *testing.T) {
	chunkRepo, chunks := seedChunks(t, 10)

	embedder := mock.NewMockEmbedder()
	vectors := index.New(nil)
	var progress bytes.Buffer

	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder := NewReembedder(chunkRepo, embedder, vectors, config, &progress)
	require.NoError(t, reembedder.Run(context.Background()))

	// 10 chunks with batch size 3 makes 4 embedding calls
	assert.Equal(t, 4, embedder.CallCount())

	ctx := context.Background()
	for _, chunk := range chunks {
		updated, err := chunkRepo.GetChunk(ctx, chunk.Id)
		require.NoError(t, err)
		require.NotEmpty(t, updated.Vector)

		var magnitude float64
		for _, v := range updated.Vector {
			magnitude += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-4, "vector for chunk %d should be unit length", chunk.Id)

		assert.True(t, vectors.Contains(chunk.Id), "chunk %d should be reindexed", chunk.Id)
	}

	assert.Equal(t, 10, vectors.Len())
	assert.Contains(t, progress.String(), "Reembedding complete")
}

func TestReembedder_Run_EmptyStore(t *testing.T) {
	_, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	var progress bytes.Buffer
	reembedder := NewReembedder(chunkRepo, mock.NewMockEmbedder(), nil, nil, &progress)

	require.NoError(t, reembedder.Run(context.Background()))
	assert.Contains(t, progress.String(), "No chunks found")
}

func TestReembedder_Run_EmbedderFails(t *testing.T) {
	chunkRepo, _ := seedChunks(t, 4)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service unavailable")
	}

	var progress bytes.Buffer
	config := &Config{BatchSize: 2, ReportInterval: 2, MaxRetries: 2, RetryDelay: time.Millisecond}

	reembedder := NewReembedder(chunkRepo, embedder, nil, config, &progress)
	err := reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service unavailable")
}

func TestReembedder_Run_Cancelled(t *testing.T) {
	chunkRepo, _ := seedChunks(t, 6)

	ctx, cancel := context.WithCancel(context.Background())

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		cancel()
		vecs := make([][]float32, len(texts))
		for i := range vecs {
			vecs[i] = []float32{1, 0, 0}
		}
		return vecs, nil
	}

	var progress bytes.Buffer
	config := &Config{BatchSize: 2, ReportInterval: 2, MaxRetries: 1, RetryDelay: time.Millisecond}

	reembedder := NewReembedder(chunkRepo, embedder, nil, config, &progress)
	err := reembedder.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunkIterator_Batches(t *testing.T) {
	chunkRepo, _ := seedChunks(t, 7)

	it := NewChunkIterator(chunkRepo, 3)

	total, err := it.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	var sizes []int
	err = it.ForEach(context.Background(), func(batch []*core.Chunk) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
}
