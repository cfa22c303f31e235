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


package paperchat

import (
	"context"
	"log/slog"

	"github.com/lamplight-ai/paperchat/ai"
	"github.com/lamplight-ai/paperchat/ai/openai"
	"github.com/lamplight-ai/paperchat/chat"
	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/index"
	"github.com/lamplight-ai/paperchat/ingestion"
	"github.com/lamplight-ai/paperchat/search"
	"github.com/lamplight-ai/paperchat/storage"
	"github.com/lamplight-ai/paperchat/storage/badger"
)

// Library is the root handle over one document store: the persistent
// backend, its repositories, the in-memory vector index, and the AI
// provider. Construct pipelines, searchers, and chat sessions from it.
type Library struct {
	backend   *badger.Backend
	docRepo   storage.DocumentRepository
	chunkRepo storage.ChunkRepository
	vectors   *index.VectorIndex
	provider  ai.AIProvider
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the AI service configuration used to build the default
// provider.
func WithAIConfig(config *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider, bypassing the default
// OpenAI-compatible one. Used by the HTTP server tests.
func WithProvider(provider ai.AIProvider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all storage in memory. Data is lost on Close.
func WithInMemory() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// WithLibraryLogger sets a custom logger.
// Default is slog.Default().
func WithLibraryLogger(logger *slog.Logger) LibraryOption {
	return func(o *libraryOptions) {
		o.logger = logger
	}
}

// Open opens the document store at filePath and rebuilds the vector index
// from the stored chunks.
func Open(ctx context.Context, filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			docRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	vectors := index.New(options.logger)
	if _, err := vectors.Load(ctx, chunkRepo); err != nil {
		provider.Close()
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Library{
		backend:   backend,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		vectors:   vectors,
		provider:  provider,
		logger:    options.logger,
	}, nil
}

// Close releases the AI provider, repositories, and backend.
func (l *Library) Close() error {
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
	}

	if err := l.chunkRepo.Close(); err != nil {
		l.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := l.docRepo.Close(); err != nil {
		l.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository exposes the stored document records.
func (l *Library) DocumentRepository() storage.DocumentRepository {
	return l.docRepo
}

// ChunkRepository exposes the stored chunks.
func (l *Library) ChunkRepository() storage.ChunkRepository {
	return l.chunkRepo
}

// VectorIndex exposes the in-memory index over chunk embeddings.
func (l *Library) VectorIndex() *index.VectorIndex {
	return l.vectors
}

// Provider exposes the configured AI provider.
func (l *Library) Provider() ai.AIProvider {
	return l.provider
}

// NewIngestionPipeline builds a pipeline writing into this library.
func (l *Library) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(l.docRepo, l.chunkRepo, l.vectors, l.provider, opts...)
}

// NewSearcher builds a searcher over this library's chunks.
func (l *Library) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(l.chunkRepo, l.vectors, l.provider, opts...)
}

// NewSession starts a question-answering conversation over this library.
func (l *Library) NewSession(opts ...chat.Option) (*chat.Session, error) {
	searcher, err := l.NewSearcher()
	if err != nil {
		return nil, err
	}
	return chat.NewSession(searcher, l.provider, opts...)
}

// DeleteDocument removes a document, its chunks, and their index entries.
// Returns the number of chunks removed.
func (l *Library) DeleteDocument(ctx context.Context, id core.ID) (int, error) {
	chunks, err := l.chunkRepo.GetChunksByDocument(ctx, id)
	if err != nil {
		return 0, err
	}

	deleted, err := l.chunkRepo.DeleteChunksByDocument(ctx, id)
	if err != nil {
		return 0, err
	}

	if err := l.docRepo.DeleteDocument(ctx, id); err != nil {
		return deleted, err
	}

	ids := make([]core.ID, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.Id
	}
	l.vectors.Remove(ids...)

	l.logger.Info("deleted document", "document_id", id, "chunks", deleted)
	return deleted, nil
}
