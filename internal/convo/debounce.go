package convo

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/kv"
)

const (
	debounceKeyPrefix = "debounce:"

	// DefaultDebounceDelay is how long a handler waits for follow-up
	// messages before processing the burst as one unit.
	DefaultDebounceDelay = 2 * time.Second

	// armTTL bounds memory held for idle senders.
	armTTL = 60 * time.Second
)

// DebounceGate coalesces rapid-fire message bursts from one customer so
// that only the latest-armed handler run proceeds to the classifier.
//
// This is sleep-then-recheck, not mutual exclusion: two runs armed within
// microseconds of each other can both observe themselves as latest. Under
// human typing cadence that window is negligible and the outcome is one
// redundant reply, caught downstream by the dedup guard.
type DebounceGate struct {
	backend kv.Backend
	delay   time.Duration
}

// NewDebounceGate creates a gate with the given wait window.
// delay <= 0 uses DefaultDebounceDelay.
func NewDebounceGate(backend kv.Backend, delay time.Duration) *DebounceGate {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &DebounceGate{backend: backend, delay: delay}
}

// Arm records at as the latest-seen message time for phone, overwriting
// any prior value.
func (g *DebounceGate) Arm(ctx context.Context, phone string, at time.Time) {
	val := strconv.FormatInt(at.UnixNano(), 10)
	if err := g.backend.Set(ctx, debounceKeyPrefix+phone, val, armTTL); err != nil {
		slog.Warn("debounce arm failed", "phone", phone, "error", err)
	}
}

// Wait suspends for the delay window, waking early on context cancellation.
func (g *DebounceGate) Wait(ctx context.Context) {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// SupersededSince reports whether a newer message arrived for phone after
// armedAt. Backend errors count as not superseded so the run proceeds.
func (g *DebounceGate) SupersededSince(ctx context.Context, phone string, armedAt time.Time) bool {
	val, ok, err := g.backend.Get(ctx, debounceKeyPrefix+phone)
	if err != nil {
		slog.Warn("debounce read failed", "phone", phone, "error", err)
		return false
	}
	if !ok {
		return false
	}

	latest, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false
	}
	return latest > armedAt.UnixNano()
}
