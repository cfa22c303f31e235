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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/lamplight-ai/paperchat/ai"
	"github.com/lamplight-ai/paperchat/chunker"
	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/extract"
	"github.com/lamplight-ai/paperchat/index"
	"github.com/lamplight-ai/paperchat/storage"
)

// Pipeline orchestrates the ingestion of uploaded documents.
type Pipeline struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	vectors   *index.VectorIndex
	batcher   *embeddingBatcher
	splitter  *chunker.Chunker
	pool      *ants.Pool
	ownedPool bool
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil && p.ownedPool {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		p.ownedPool = true
		return nil
	}
}

// WithChunker sets a custom text splitter.
func WithChunker(splitter *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if splitter == nil {
			return fmt.Errorf("chunker must not be nil")
		}
		p.splitter = splitter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	vectors *index.VectorIndex,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents: documents,
		chunks:    chunks,
		vectors:   vectors,
		pool:      pool,
		ownedPool: true,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.splitter == nil {
		splitter, err := chunker.New(p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.splitter = splitter
	}

	batcher, err := newEmbeddingBatcher(provider.Embedder(), p.pool, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.batcher = batcher

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	// Metadata is attached to the document record.
	Metadata map[string]string

	// Progress receives embedding progress callbacks.
	Progress ProgressFunc
}

// Result describes a completed ingestion.
type Result struct {
	// Document is the stored document record.
	Document *core.Document

	// Deduplicated is true when the file was already ingested and the
	// existing document was returned untouched.
	Deduplicated bool

	// Duration covers extraction through indexing. Zero for deduplicated
	// uploads.
	Duration time.Duration
}

// Ingest processes one uploaded file end to end. Re-uploading a file whose
// bytes were already ingested returns the existing document without
// re-processing.
func (p *Pipeline) Ingest(ctx context.Context, name string, data []byte, opts *IngestOptions) (*Result, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	started := time.Now()

	contentHash := core.IDFromContent(data)

	existing, err := p.documents.GetDocumentByHash(ctx, contentHash)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		p.logger.Info("skipping previously ingested file",
			"file", name,
			"document_id", existing.Id)
		return &Result{Document: existing, Deduplicated: true}, nil
	}

	extractor, err := extract.ForFile(name, p.logger)
	if err != nil {
		return nil, err
	}

	extracted, err := extractor.Extract(ctx, data, name)
	if err != nil {
		return nil, err
	}

	pieces := p.splitter.Split(extracted.Text)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoChunks, name)
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}

	embeddings, err := p.batcher.embedAll(ctx, texts, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks for %s: %w", name, err)
	}

	doc := &core.Document{
		Name:        name,
		ContentHash: contentHash,
		SizeBytes:   int64(len(data)),
		PageCount:   extracted.PageCount,
		ChunkCount:  len(pieces),
		Metadata:    opts.Metadata,
	}
	if _, err := p.documents.AddDocument(ctx, doc); err != nil {
		return nil, err
	}

	records := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		records[i] = &core.Chunk{
			DocumentId: doc.Id,
			Seq:        i,
			Contents:   piece.Text,
			TokenCount: piece.TokenCount,
			Vector:     embeddings[i],
		}
	}
	if _, err := p.chunks.AddChunks(ctx, records...); err != nil {
		return nil, err
	}

	for _, record := range records {
		if err := p.vectors.Add(record.Id, record.Vector); err != nil {
			return nil, fmt.Errorf("failed to index chunk %d: %w", record.Id, err)
		}
	}

	duration := time.Since(started)
	p.logger.Info("ingested document",
		"file", name,
		"document_id", doc.Id,
		"pages", extracted.PageCount,
		"chunks", len(records),
		"duration", duration)

	return &Result{Document: doc, Duration: duration}, nil
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil && p.ownedPool {
		p.pool.Release()
	}
}
