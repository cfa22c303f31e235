package mock

import (
	"context"

	"github.com/lamplight-ai/paperchat/ai"
)

// MockChatCompleter is a test double for ai.ChatCompleter.
// It allows custom behavior injection via function fields.
type MockChatCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default canned behavior.
	CompleteFunc func(ctx context.Context, messages []ai.ChatMessage) (string, error)

	callCount int

	// LastMessages records the messages of the most recent Complete call.
	LastMessages []ai.ChatMessage
}

// NewMockChatCompleter creates a mock chat completer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockChatCompleter().
func NewMockChatCompleter() *MockChatCompleter {
	return &MockChatCompleter{}
}

// Complete returns a canned response echoing the last user message.
func (m *MockChatCompleter) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	m.callCount++
	m.LastMessages = messages

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}

	// Default: echo the final user message so tests can assert on routing
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.ChatRoleUser {
			return "mock answer to: " + messages[i].Content, nil
		}
	}
	return "mock answer", nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatCompleter) CallCount() int {
	return m.callCount
}

// Reset clears the call count and recorded messages.
func (m *MockChatCompleter) Reset() {
	m.callCount = 0
	m.LastMessages = nil
	m.CompleteFunc = nil
}
