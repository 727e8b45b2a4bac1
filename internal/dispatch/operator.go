package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/convo"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// SendOperatorMessage delivers an operator's reply to the customer and
// records it. Unlike the bot path, a channel send failure aborts: the
// operator needs to know the message did not go out.
func (d *Dispatcher) SendOperatorMessage(ctx context.Context, convID uuid.UUID, operatorID, text string) (*store.Message, error) {
	conv, err := d.stores.Conversations.Get(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %s not found", convID)
	}
	customer, err := d.stores.Customers.Get(ctx, conv.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s not found", conv.CustomerID)
	}

	if err := d.sender.Send(ctx, customer.Phone, text); err != nil {
		return nil, fmt.Errorf("send operator message: %w", err)
	}

	msg := &store.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderRole:     store.RoleOperator,
		SenderID:       operatorID,
		Content:        text,
		Kind:           "text",
		CreatedAt:      d.now(),
	}
	if err := d.stores.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist operator message: %w", err)
	}
	d.contexts.Append(ctx, customer.Phone, "assistant", text)

	d.notifier.NotifyMessage(conv.ID, d.notifySector(conv), msg)
	return msg, nil
}

// Claim assigns a waiting conversation to an operator and removes it from
// its sector's wait line.
func (d *Dispatcher) Claim(ctx context.Context, convID uuid.UUID, operatorID string) (*store.Conversation, error) {
	conv, err := d.stores.Conversations.Get(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %s not found", convID)
	}

	wasQueued := conv.Status == store.StatusWaitingQueue
	if err := convo.Transition(conv, store.StatusInProgress, d.now()); err != nil {
		return nil, err
	}
	conv.OperatorID = operatorID
	if err := d.stores.Conversations.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("persist conversation: %w", err)
	}

	if wasQueued {
		if err := d.queues.Remove(ctx, conv.Sector, conv.ID); err != nil {
			slog.Error("dequeue on claim failed", "conversation_id", conv.ID, "error", err)
		}
		d.broadcastQueueSizes(ctx)
	}
	d.notifier.NotifyStatusChange(conv)
	slog.Info("conversation claimed", "conversation_id", conv.ID, "operator_id", operatorID)
	return conv, nil
}

// Resolve marks a conversation finished. It stays eligible for
// reactivation if the customer writes back within the window.
func (d *Dispatcher) Resolve(ctx context.Context, convID uuid.UUID) (*store.Conversation, error) {
	return d.finish(ctx, convID, store.StatusResolved)
}

// Close ends a conversation for good. Closed conversations never reactivate.
func (d *Dispatcher) Close(ctx context.Context, convID uuid.UUID) (*store.Conversation, error) {
	return d.finish(ctx, convID, store.StatusClosed)
}

func (d *Dispatcher) finish(ctx context.Context, convID uuid.UUID, status store.ConversationStatus) (*store.Conversation, error) {
	conv, err := d.stores.Conversations.Get(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %s not found", convID)
	}

	wasQueued := conv.Status == store.StatusWaitingQueue
	if err := convo.Transition(conv, status, d.now()); err != nil {
		return nil, err
	}
	if err := d.stores.Conversations.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("persist conversation: %w", err)
	}

	if wasQueued {
		if err := d.queues.Remove(ctx, conv.Sector, conv.ID); err != nil {
			slog.Error("dequeue on finish failed", "conversation_id", conv.ID, "error", err)
		}
		d.broadcastQueueSizes(ctx)
	}
	d.notifier.NotifyStatusChange(conv)
	slog.Info("conversation finished", "conversation_id", conv.ID, "status", status)
	return conv, nil
}

// QueueSizes reports the current wait-line lengths.
func (d *Dispatcher) QueueSizes(ctx context.Context) (map[string]int64, error) {
	return d.queues.Sizes(ctx)
}

func (d *Dispatcher) broadcastQueueSizes(ctx context.Context) {
	sizes, err := d.queues.Sizes(ctx)
	if err != nil {
		slog.Warn("queue sizes unavailable", "error", err)
		return
	}
	d.notifier.NotifyQueueSizes(sizes)
}
