// Package convo holds the per-customer conversation coordination pieces:
// the sliding context window fed to the classifier, the burst-coalescing
// debounce gate, the duplicate-reply guard and the lifecycle state machine.
package convo

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/kv"
)

const contextKeyPrefix = "context:"

// Turn is one {role, content} pair of classifier context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContextStore keeps a bounded dialogue history per customer phone.
// Storage failures degrade silently to an empty context; the classifier
// just loses short-term memory.
type ContextStore struct {
	backend  kv.Backend
	maxTurns int
	ttl      time.Duration
}

// NewContextStore creates a context store capped at maxTurns with a
// sliding ttl reset on every write.
func NewContextStore(backend kv.Backend, maxTurns int, ttl time.Duration) *ContextStore {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ContextStore{backend: backend, maxTurns: maxTurns, ttl: ttl}
}

// Append pushes a turn and truncates to the last maxTurns entries.
func (s *ContextStore) Append(ctx context.Context, phone, role, content string) {
	turns := s.History(ctx, phone)
	turns = append(turns, Turn{Role: role, Content: content})
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}

	data, err := json.Marshal(turns)
	if err != nil {
		slog.Error("context marshal failed", "phone", phone, "error", err)
		return
	}
	if err := s.backend.Set(ctx, contextKeyPrefix+phone, string(data), s.ttl); err != nil {
		slog.Warn("context write failed", "phone", phone, "error", err)
	}
}

// History returns the current turns, or an empty slice when absent,
// expired or unreadable.
func (s *ContextStore) History(ctx context.Context, phone string) []Turn {
	data, ok, err := s.backend.Get(ctx, contextKeyPrefix+phone)
	if err != nil {
		slog.Warn("context read failed", "phone", phone, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var turns []Turn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		slog.Warn("context entry corrupt, dropping", "phone", phone, "error", err)
		s.Clear(ctx, phone)
		return nil
	}
	return turns
}

// Clear removes all turns for a phone.
func (s *ContextStore) Clear(ctx context.Context, phone string) {
	if err := s.backend.Delete(ctx, contextKeyPrefix+phone); err != nil {
		slog.Warn("context clear failed", "phone", phone, "error", err)
	}
}
