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


package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lamplight-ai/paperchat/ai"
	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/search"
)

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

// contextPromptFormat frames retrieved chunks for the chat model.
const contextPromptFormat = "Context: %s\n\nPlease provide a response based on the above context and the user's query."

// Answer is the model's response to one question.
type Answer struct {
	// Text is the model's reply.
	Text string

	// Sources are the chunks injected as context, ranked by relevance.
	// Empty when the question was answered without document context.
	Sources []*core.SearchResult
}

// Session is a single question-answering conversation. Safe for concurrent
// use.
type Session struct {
	mu        sync.Mutex
	searcher  *search.Searcher
	completer ai.ChatCompleter
	history   []core.Message
	maxHits   int
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithMaxHits sets how many chunks are retrieved per question.
// Default is search.DefaultMaxHits.
func WithMaxHits(maxHits int) Option {
	return func(s *Session) {
		if maxHits > 0 {
			s.maxHits = maxHits
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a conversation backed by the given searcher and chat
// provider.
func NewSession(searcher *search.Searcher, provider ai.AIProvider, opts ...Option) (*Session, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Session{
		searcher:  searcher,
		completer: provider.ChatCompleter(),
		maxHits:   search.DefaultMaxHits,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Ask retrieves context for the question, completes the conversation, and
// records both turns in the history. Retrieval failures degrade to answering
// without context rather than failing the question.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, search.ErrEmptyQuery
	}

	sources, err := s.searcher.FindSimilar(ctx, question, s.maxHits)
	if err != nil {
		s.logger.Warn("retrieval failed, answering without context", "err", err)
		sources = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]ai.ChatMessage, 0, len(s.history)+2)
	for _, turn := range s.history {
		messages = append(messages, ai.ChatMessage{
			Role:    chatRole(turn.Role),
			Content: turn.Contents,
		})
	}

	if len(sources) > 0 {
		contextText := joinSources(sources)
		messages = append(messages, ai.ChatMessage{
			Role:    ai.ChatRoleSystem,
			Content: fmt.Sprintf(contextPromptFormat, contextText),
		})
	}

	messages = append(messages, ai.ChatMessage{
		Role:    ai.ChatRoleUser,
		Content: question,
	})

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.history = append(s.history,
		core.Message{Role: core.RoleUser, Contents: question, SentAt: now},
		core.Message{Role: core.RoleAssistant, Contents: reply, SentAt: now},
	)

	s.logger.Debug("answered question",
		"sources", len(sources),
		"history_turns", len(s.history))

	return &Answer{Text: reply, Sources: sources}, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]core.Message, len(s.history))
	copy(history, s.history)
	return history
}

// Clear discards the conversation history.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
}

// joinSources concatenates chunk texts in rank order.
func joinSources(sources []*core.SearchResult) string {
	texts := make([]string, len(sources))
	for i, source := range sources {
		texts[i] = source.Chunk.Contents
	}
	return strings.Join(texts, "\n\n")
}

func chatRole(role core.Role) ai.ChatRole {
	if role == core.RoleAssistant {
		return ai.ChatRoleAssistant
	}
	return ai.ChatRoleUser
}
