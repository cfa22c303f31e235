package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/lamplight-ai/paperchat/ai"
)

// embedBatchSize is how many chunk texts are sent per embedding request.
const embedBatchSize = 5

// ProgressFunc reports embedding progress during ingestion. completed and
// total count chunks.
type ProgressFunc func(completed, total int)

// embeddingBatcher generates embeddings for chunk texts in concurrent
// batches.
type embeddingBatcher struct {
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

func newEmbeddingBatcher(embedder ai.Embedder, pool *ants.Pool, logger *slog.Logger) (*embeddingBatcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if pool == nil {
		return nil, fmt.Errorf("worker pool required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingBatcher{
		embedder: embedder,
		pool:     pool,
		logger:   logger.With("component", "embedding_batcher"),
	}, nil
}

// embedAll embeds every text, preserving order. Batches run concurrently on
// the worker pool; the first batch error wins and remaining batches are
// still drained before returning.
func (b *embeddingBatcher) embedAll(ctx context.Context, texts []string, progress ProgressFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		completed int
	)

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed || ctx.Err() != nil {
				return
			}

			embeddings, err := b.embedder.EmbedTexts(ctx, batch)
			if err == nil && len(embeddings) != len(batch) {
				err = fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(embeddings))
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}

			copy(vectors[start:end], embeddings)
			completed += len(batch)
			if progress != nil {
				progress(completed, len(texts))
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to submit embedding batch: %w", err)
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return vectors, nil
}
