package routing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/kv"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

const queuePrefix = "queue:"

// QueueRouter keeps one FIFO wait line per sector. Entries are
// conversation IDs; a conversation sits in at most one queue at a time.
type QueueRouter struct {
	backend kv.Backend
	catalog Catalog
}

func NewQueueRouter(backend kv.Backend, catalog Catalog) *QueueRouter {
	return &QueueRouter{backend: backend, catalog: catalog}
}

func (r *QueueRouter) Catalog() Catalog { return r.catalog }

// Enqueue appends the conversation to the sector's wait line.
func (r *QueueRouter) Enqueue(ctx context.Context, sector string, convID uuid.UUID) error {
	if err := r.backend.ListPush(ctx, queuePrefix+sector, convID.String()); err != nil {
		return fmt.Errorf("enqueue %s: %w", sector, err)
	}
	return nil
}

// DequeueNext pops the oldest waiting conversation from the sector's
// line. The zero UUID and false mean the line is empty.
func (r *QueueRouter) DequeueNext(ctx context.Context, sector string) (uuid.UUID, bool, error) {
	raw, ok, err := r.backend.ListPop(ctx, queuePrefix+sector)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("dequeue %s: %w", sector, err)
	}
	if !ok {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("dequeue %s: bad entry %q: %w", sector, raw, err)
	}
	return id, true, nil
}

// Remove deletes the conversation from the sector's line wherever it sits.
func (r *QueueRouter) Remove(ctx context.Context, sector string, convID uuid.UUID) error {
	if sector == "" {
		return nil
	}
	if err := r.backend.ListRemove(ctx, queuePrefix+sector, convID.String()); err != nil {
		return fmt.Errorf("remove from %s: %w", sector, err)
	}
	return nil
}

// Sizes reports the current length of every sector's wait line.
func (r *QueueRouter) Sizes(ctx context.Context) (map[string]int64, error) {
	sizes := make(map[string]int64, len(r.catalog.Sectors))
	for _, sector := range r.catalog.Sectors {
		n, err := r.backend.ListLen(ctx, queuePrefix+sector)
		if err != nil {
			return nil, fmt.Errorf("queue size %s: %w", sector, err)
		}
		sizes[sector] = n
	}
	return sizes, nil
}

// Handoff places the conversation in the wait line for resolvedSector and
// updates the conversation's sector and status in place. When no sector
// resolved the catalog default receives it. A conversation already waiting
// in the same sector is left where it is; one waiting in a different
// sector migrates, losing its old queue position.
func (r *QueueRouter) Handoff(ctx context.Context, conv *store.Conversation, resolvedSector string) error {
	target := resolvedSector
	if target == "" || !r.catalog.Valid(target) {
		target = r.catalog.HandoffDefault
	}

	alreadyQueued := conv.Status == store.StatusWaitingQueue
	if alreadyQueued && conv.Sector == target {
		return nil
	}
	if alreadyQueued && conv.Sector != "" {
		if err := r.Remove(ctx, conv.Sector, conv.ID); err != nil {
			return err
		}
		slog.Info("queue migration",
			"conversation_id", conv.ID,
			"from", conv.Sector,
			"to", target)
	}

	if err := r.Enqueue(ctx, target, conv.ID); err != nil {
		return err
	}
	conv.Sector = target
	conv.Status = store.StatusWaitingQueue
	return nil
}
