package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatRole identifies the author of a chat message sent to the model.
type ChatRole string

const (
	// ChatRoleSystem carries instructions and retrieved context.
	ChatRoleSystem ChatRole = "system"
	// ChatRoleUser carries the human's questions.
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant carries the model's previous answers.
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single message in a chat completion request.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatCompleter generates answers from a hosted chat completion API.
// Implementations must be thread-safe for concurrent use.
type ChatCompleter interface {
	// Complete sends the full message sequence to the model and returns the
	// assistant's reply. The messages should include any conversation history
	// and context the caller wants the model to see.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ChatCompleter instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatCompleter returns the chat completion service.
	// The returned ChatCompleter is safe for concurrent use.
	ChatCompleter() ChatCompleter

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
