package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamplight-ai/paperchat/ai/mock"
	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/index"
	"github.com/lamplight-ai/paperchat/storage"
	"github.com/lamplight-ai/paperchat/storage/badger"
)

// vectorEmbedder returns fixed vectors for known texts so similarity scores
// are predictable. Unknown texts get an orthogonal filler vector.
func vectorEmbedder(known map[string][]float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	lookup := func(text string) []float32 {
		if vec, ok := known[text]; ok {
			return vec
		}
		return []float32{0, 0, 0, 1}
	}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return lookup(text), nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = lookup(text)
		}
		return out, nil
	}
	return embedder
}

type searchFixture struct {
	chunks   storage.ChunkRepository
	vectors  *index.VectorIndex
	embedder *mock.MockEmbedder
	searcher *Searcher
}

func newSearchFixture(t *testing.T, known map[string][]float32, opts ...Option) *searchFixture {
	t.Helper()

	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ctx := context.Background()
	doc := &core.Document{Name: "fixture.pdf", ContentHash: 7, SizeBytes: 1, PageCount: 1}
	_, err = docRepo.AddDocument(ctx, doc)
	require.NoError(t, err)

	embedder := vectorEmbedder(known)
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatCompleter())

	vectors := index.New(nil)
	searcher, err := NewSearcher(chunkRepo, vectors, provider, opts...)
	require.NoError(t, err)

	f := &searchFixture{
		chunks:   chunkRepo,
		vectors:  vectors,
		embedder: embedder,
		searcher: searcher,
	}

	seq := 0
	for text, vec := range known {
		chunk := &core.Chunk{DocumentId: doc.Id, Seq: seq, Contents: text, Vector: vec}
		_, err = chunkRepo.AddChunks(ctx, chunk)
		require.NoError(t, err)
		require.NoError(t, vectors.Add(chunk.Id, vec))
		seq++
	}

	return f
}

func TestNewSearcher(t *testing.T) {
	_, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(chunkRepo, index.New(nil), provider)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil index is allowed", func(t *testing.T) {
		searcher, err := NewSearcher(chunkRepo, nil, provider)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(chunkRepo, index.New(nil), provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewSearcher(nil, index.New(nil), provider)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(chunkRepo, index.New(nil), nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestFindSimilar_EmptyStore(t *testing.T) {
	f := newSearchFixture(t, map[string][]float32{})

	results, err := f.searcher.FindSimilar(context.Background(), "anything at all", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_RanksBySimilarity(t *testing.T) {
	known := map[string][]float32{
		"neural networks learn representations": {1, 0, 0, 0},
		"gradient descent optimizes weights":    {0.9, 0.1, 0, 0},
		"the recipe calls for two eggs":         {0, 1, 0, 0},
	}
	f := newSearchFixture(t, known)
	// Query embeds to the same vector as the first chunk.
	known["how do neural networks work"] = []float32{1, 0, 0, 0}

	results, err := f.searcher.FindSimilar(context.Background(), "how do neural networks work", 3)
	require.NoError(t, err)
	require.Len(t, results, 2) // recipe chunk is below the similarity floor

	assert.Equal(t, "neural networks learn representations", results[0].Chunk.Contents)
	assert.Equal(t, "gradient descent optimizes weights", results[1].Chunk.Contents)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_ThresholdExcludesWeakMatches(t *testing.T) {
	known := map[string][]float32{
		"completely unrelated content": {0, 1, 0, 0},
	}
	f := newSearchFixture(t, known)
	known["specific question"] = []float32{1, 0, 0, 0}

	results, err := f.searcher.FindSimilar(context.Background(), "specific question", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_VerbatimBoost(t *testing.T) {
	known := map[string][]float32{
		"quarterly revenue grew by ten percent": {0.95, 0.05, 0, 0},
		"profits were strong this quarter":      {1, 0, 0, 0},
	}
	f := newSearchFixture(t, known)
	known["quarterly revenue grew"] = []float32{1, 0, 0, 0}

	results, err := f.searcher.FindSimilar(context.Background(), "quarterly revenue grew", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The verbatim chunk wins despite lower cosine similarity.
	assert.Equal(t, "quarterly revenue grew by ten percent", results[0].Chunk.Contents)
}

func TestFindSimilar_MaxHitsLimit(t *testing.T) {
	known := map[string][]float32{
		"alpha entry": {1, 0, 0, 0},
		"bravo entry": {0.99, 0.01, 0, 0},
		"delta entry": {0.98, 0.02, 0, 0},
	}
	f := newSearchFixture(t, known)
	known["entries"] = []float32{1, 0, 0, 0}

	results, err := f.searcher.FindSimilar(context.Background(), "entries", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindSimilar_CachesQueryEmbedding(t *testing.T) {
	known := map[string][]float32{
		"cached content lives here": {1, 0, 0, 0},
	}
	f := newSearchFixture(t, known)
	known["repeated question"] = []float32{1, 0, 0, 0}

	ctx := context.Background()
	_, err := f.searcher.FindSimilar(ctx, "repeated question", 3)
	require.NoError(t, err)
	calls := f.embedder.CallCount()

	_, err = f.searcher.FindSimilar(ctx, "repeated question", 3)
	require.NoError(t, err)
	assert.Equal(t, calls, f.embedder.CallCount(), "second identical query should hit the cache")
}

func TestFindSimilar_FallbackScanWithoutIndex(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	doc := &core.Document{Name: "scan.pdf", ContentHash: 9, SizeBytes: 1, PageCount: 1}
	_, err = docRepo.AddDocument(ctx, doc)
	require.NoError(t, err)

	chunk := &core.Chunk{DocumentId: doc.Id, Seq: 0, Contents: "fallback path content", Vector: []float32{1, 0, 0, 0}}
	_, err = chunkRepo.AddChunks(ctx, chunk)
	require.NoError(t, err)

	embedder := vectorEmbedder(map[string][]float32{
		"fallback query": {1, 0, 0, 0},
	})
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatCompleter())

	searcher, err := NewSearcher(chunkRepo, nil, provider)
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "fallback query", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fallback path content", results[0].Chunk.Contents)
}

func TestFindSimilar_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t, map[string][]float32{})

	_, err := f.searcher.FindSimilar(context.Background(), "   ", 3)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestTokenizeAndFilter(t *testing.T) {
	words := tokenizeAndFilter("The Quick, brown FOX jumps!")
	assert.Equal(t, []string{"quick", "brown", "fox", "jumps"}, words)
}

func TestContainsAllQueryWords(t *testing.T) {
	tests := []struct {
		name     string
		document string
		query    string
		want     bool
	}{
		{"all present", "the quick brown fox", "quick fox", true},
		{"missing word", "the quick brown fox", "quick wolf", false},
		{"stop words only", "some document text", "the a an", false},
		{"case insensitive", "Quick Brown Fox", "quick BROWN", true},
		{"punctuation trimmed", "revenue grew (ten) percent.", "revenue percent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsAllQueryWords(tt.document, tt.query))
		})
	}
}
