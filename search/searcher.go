package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lamplight-ai/paperchat/ai"
	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/index"
	"github.com/lamplight-ai/paperchat/storage"
)

const (
	// DefaultMaxHits is how many chunks a search returns by default.
	DefaultMaxHits = 3

	// DefaultMinSimilarity is the cosine similarity floor for a chunk to
	// count as relevant.
	DefaultMinSimilarity = 0.60

	// defaultCacheSize bounds the query embedding cache.
	defaultCacheSize = 128

	// verbatimBoost is added when a chunk contains every query word.
	verbatimBoost = 0.3
)

// Searcher provides semantic search over document chunks.
//
// Queries are embedded once and cached. Candidate chunks come from the
// in-memory vector index; when the index is empty the searcher falls back to
// an exact similarity scan over storage.
type Searcher struct {
	chunks        storage.ChunkRepository
	vectors       *index.VectorIndex
	embedder      ai.Embedder
	queryCache    *lru.Cache[string, []float32]
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity floor for results.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// WithCacheSize sets the query embedding cache capacity.
func WithCacheSize(size int) Option {
	return func(s *Searcher) error {
		cache, err := lru.New[string, []float32](size)
		if err != nil {
			return err
		}
		s.queryCache = cache
		return nil
	}
}

// NewSearcher creates a new searcher. vectors may be nil, in which case every
// search uses the exact storage scan.
func NewSearcher(
	chunks storage.ChunkRepository,
	vectors *index.VectorIndex,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	cache, err := lru.New[string, []float32](defaultCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		chunks:        chunks,
		vectors:       vectors,
		embedder:      provider.Embedder(),
		queryCache:    cache,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for chunks relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for chunks relevant to the query with
// monitoring. The monitor receives callbacks at each stage of the search.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}

	monitor.Start(query)

	embedding, cached := s.queryCache.Get(query)
	if !cached {
		var err error
		embedding, err = s.embedder.EmbedText(ctx, query)
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", query, "err", err)
			return nil, err
		}
		s.queryCache.Add(query, embedding)
	}
	monitor.AfterQueryEmbedding(cached)

	var results []*core.SearchResult
	if s.vectors != nil && s.vectors.Len() > 0 {
		matches, err := s.vectors.Search(embedding, maxHits)
		if err != nil {
			s.logger.Error("error querying vector index", "err", err)
			return nil, err
		}
		monitor.AfterVectorSearch(matches)

		hydrated, err := s.hydrate(ctx, matches, monitor)
		if err != nil {
			return nil, err
		}
		results = hydrated
	} else {
		// Exact scan fallback for empty or absent index.
		scanned, err := s.chunks.FindSimilar(ctx, embedding, s.minSimilarity, maxHits)
		if err != nil {
			s.logger.Error("error scanning for similar chunks", "err", err)
			return nil, err
		}
		results = scanned
	}

	// Filter below-threshold hits, then apply verbatim boost.
	filtered := make([]*core.SearchResult, 0, len(results))
	for _, result := range results {
		if result.Score < s.minSimilarity {
			continue
		}
		if containsAllQueryWords(result.Chunk.Contents, query) {
			result.Score += verbatimBoost
			monitor.VerbatimHit(result.Chunk)
		}
		filtered = append(filtered, result)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if len(filtered) > maxHits {
		filtered = filtered[:maxHits]
	}
	monitor.Finish(filtered)

	return filtered, nil
}

// hydrate loads full chunks for index matches, keeping match scores.
func (s *Searcher) hydrate(ctx context.Context, matches []core.SimilarityMatch, monitor SearchMonitor) ([]*core.SearchResult, error) {
	results := make([]*core.SearchResult, 0, len(matches))
	retrieved := make([]*core.Chunk, 0, len(matches))

	for _, match := range matches {
		chunk, err := s.chunks.GetChunk(ctx, match.ChunkId)
		if err != nil {
			s.logger.Warn("indexed chunk missing from storage", "chunk_id", match.ChunkId, "err", err)
			continue
		}
		retrieved = append(retrieved, chunk)
		results = append(results, &core.SearchResult{
			Chunk: chunk,
			Score: match.Score,
		})
	}
	monitor.AfterChunkRetrieval(retrieved)

	return results, nil
}
