// Package dispatch orchestrates the inbound message cycle: persistence,
// debounced coalescing, classification, the bot reply, human handoff and
// dashboard notifications.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/channels"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/classifier"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/convo"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/routing"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// Classifier produces a verdict for one customer message.
type Classifier interface {
	Analyze(ctx context.Context, req classifier.Request) classifier.Result
}

// Notifier pushes events to operator dashboards.
type Notifier interface {
	NotifyMessage(convID uuid.UUID, sector string, msg *store.Message)
	NotifyNewConversation(conv *store.Conversation)
	NotifyStatusChange(conv *store.Conversation)
	NotifyQueueSizes(sizes map[string]int64)
}

// Inbound is one customer message received from a channel webhook.
type Inbound struct {
	Phone            string
	Text             string
	ChannelMessageID string
	SenderName       string
	Kind             string // "text", "image", "audio", ...
	MediaURL         string
}

// Dispatcher runs the inbound cycle. One instance serves all phones;
// per-phone coalescing happens through the debounce gate.
type Dispatcher struct {
	stores     store.Stores
	contexts   *convo.ContextStore
	debounce   *convo.DebounceGate
	dedup      *convo.DedupGuard
	queues     *routing.QueueRouter
	classifier Classifier
	sender     channels.Sender
	notifier   Notifier
	hours      Hours

	now func() time.Time
}

func New(
	stores store.Stores,
	contexts *convo.ContextStore,
	debounce *convo.DebounceGate,
	dedup *convo.DedupGuard,
	queues *routing.QueueRouter,
	cls Classifier,
	sender channels.Sender,
	notifier Notifier,
	hours Hours,
) *Dispatcher {
	return &Dispatcher{
		stores:     stores,
		contexts:   contexts,
		debounce:   debounce,
		dedup:      dedup,
		queues:     queues,
		classifier: cls,
		sender:     sender,
		notifier:   notifier,
		hours:      hours,
		now:        time.Now,
	}
}

// HandleInbound processes one customer message end to end. Errors are
// logged, not returned: the webhook has already been acknowledged.
func (d *Dispatcher) HandleInbound(ctx context.Context, in Inbound) {
	if err := d.handleInbound(ctx, in); err != nil {
		slog.Error("inbound processing failed", "phone", in.Phone, "error", err)
	}
}

func (d *Dispatcher) handleInbound(ctx context.Context, in Inbound) error {
	phone := channels.NormalizePhone(in.Phone)
	now := d.now()

	customer, err := d.resolveCustomer(ctx, phone, in.SenderName, now)
	if err != nil {
		return err
	}
	conv, err := d.resolveConversation(ctx, customer, now)
	if err != nil {
		return err
	}

	// The customer message is persisted before anything that can fail,
	// so a classifier or channel outage never loses it.
	msg := &store.Message{
		ID:               uuid.New(),
		ConversationID:   conv.ID,
		SenderRole:       store.RoleCustomer,
		SenderID:         phone,
		Content:          in.Text,
		Kind:             in.Kind,
		MediaURL:         in.MediaURL,
		ChannelMessageID: in.ChannelMessageID,
		CreatedAt:        now,
	}
	if msg.Kind == "" {
		msg.Kind = "text"
	}
	if err := d.stores.Messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("persist customer message: %w", err)
	}
	d.contexts.Append(ctx, phone, "user", in.Text)

	// Debounce: arm, sleep, re-check. A newer arrival during the sleep
	// supersedes this cycle and carries the coalesced context forward.
	d.debounce.Arm(ctx, phone, now)
	d.debounce.Wait(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if d.debounce.SupersededSince(ctx, phone, now) {
		slog.Info("debounce superseded", "phone", phone)
		return nil
	}

	// A human operator owns the conversation; the bot stays silent but
	// the dashboard still sees the message.
	if conv.Status == store.StatusInProgress {
		d.notifier.NotifyMessage(conv.ID, d.notifySector(conv), msg)
		return nil
	}

	history := d.contexts.History(ctx, phone)
	if len(history) > 0 {
		// The current message rides in the prompt itself.
		history = history[:len(history)-1]
	}
	verdict := d.classifier.Analyze(ctx, classifier.Request{
		Message:       in.Text,
		Context:       history,
		CustomerName:  customer.Name,
		BusinessHours: d.hours.Within(now),
	})

	dedupKey, dedupTTL := convo.DedupKey(verdict.Response)
	if d.dedup.IsDuplicate(ctx, phone, dedupKey, dedupTTL) {
		slog.Warn("duplicate response suppressed", "phone", phone)
		return nil
	}

	if err := d.stores.Messages.SetIntent(ctx, msg.ID, verdict.Intent); err != nil {
		slog.Error("tag message intent failed", "message_id", msg.ID, "error", err)
	}
	msg.Intent = verdict.Intent
	conv.Intent = verdict.Intent
	sector := d.queues.Catalog().Resolve(verdict.Intent)

	// Send failures do not abort the cycle; the bot reply is still
	// recorded and the handoff still happens.
	if err := d.sender.Send(ctx, phone, verdict.Response); err != nil {
		slog.Error("send reply failed", "phone", phone, "error", err)
	}

	botMsg := &store.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderRole:     store.RoleBot,
		SenderID:       "bot",
		Content:        verdict.Response,
		Kind:           "text",
		Intent:         verdict.Intent,
		CreatedAt:      d.now(),
	}
	if err := d.stores.Messages.Create(ctx, botMsg); err != nil {
		slog.Error("persist bot message failed", "conversation_id", conv.ID, "error", err)
	}
	d.contexts.Append(ctx, phone, "assistant", verdict.Response)

	if verdict.NeedsHuman {
		if err := d.handoff(ctx, conv, sector); err != nil {
			slog.Error("handoff failed", "conversation_id", conv.ID, "error", err)
		}
	} else if sector != "" {
		conv.Sector = sector
	}

	if err := d.stores.Conversations.Update(ctx, conv); err != nil {
		return fmt.Errorf("persist conversation: %w", err)
	}

	if in.ChannelMessageID != "" {
		if err := d.sender.MarkRead(ctx, in.ChannelMessageID); err != nil {
			slog.Warn("mark read failed", "channel_message_id", in.ChannelMessageID, "error", err)
		}
	}

	notifySector := d.notifySector(conv)
	d.notifier.NotifyMessage(conv.ID, notifySector, msg)
	d.notifier.NotifyMessage(conv.ID, notifySector, botMsg)

	slog.Info("inbound processed",
		"phone", phone,
		"conversation_id", conv.ID,
		"intent", verdict.Intent,
		"needs_human", verdict.NeedsHuman)
	return nil
}

// handoff queues the conversation for a sector and announces it.
func (d *Dispatcher) handoff(ctx context.Context, conv *store.Conversation, sector string) error {
	wasQueued := conv.Status == store.StatusWaitingQueue
	if err := d.queues.Handoff(ctx, conv, sector); err != nil {
		return err
	}
	if !wasQueued {
		d.notifier.NotifyNewConversation(conv)
	}
	sizes, err := d.queues.Sizes(ctx)
	if err != nil {
		slog.Warn("queue sizes unavailable", "error", err)
		return nil
	}
	d.notifier.NotifyQueueSizes(sizes)
	return nil
}

func (d *Dispatcher) notifySector(conv *store.Conversation) string {
	if conv.Sector != "" {
		return conv.Sector
	}
	return d.queues.Catalog().NotifyFallback
}

func (d *Dispatcher) resolveCustomer(ctx context.Context, phone, name string, now time.Time) (*store.Customer, error) {
	customer, err := d.stores.Customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	if customer == nil {
		customer = &store.Customer{
			ID:           uuid.New(),
			Phone:        phone,
			Name:         name,
			FirstContact: now,
			LastContact:  now,
		}
		if err := d.stores.Customers.Create(ctx, customer); err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		slog.Info("new customer", "phone", phone)
		return customer, nil
	}

	if name != "" && customer.Name == "" {
		customer.Name = name
	}
	customer.LastContact = now
	if err := d.stores.Customers.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return customer, nil
}

// resolveConversation returns the customer's open conversation, reactivates
// a recently resolved one, or starts a new episode.
func (d *Dispatcher) resolveConversation(ctx context.Context, customer *store.Customer, now time.Time) (*store.Conversation, error) {
	conv, err := d.stores.Conversations.LatestActive(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup active conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	cutoff := now.Add(-convo.ReactivationWindow)
	resolved, err := d.stores.Conversations.LatestResolvedSince(ctx, customer.ID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("lookup resolved conversation: %w", err)
	}
	if resolved != nil && convo.CanReactivate(resolved, now) {
		convo.Reactivate(resolved)
		if err := d.stores.Conversations.Update(ctx, resolved); err != nil {
			return nil, fmt.Errorf("reactivate conversation: %w", err)
		}
		slog.Info("conversation reactivated", "conversation_id", resolved.ID)
		return resolved, nil
	}

	conv = &store.Conversation{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		Status:     store.StatusBotHandling,
		StartedAt:  now,
	}
	if err := d.stores.Conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	customer.TotalConversations++
	if err := d.stores.Customers.Update(ctx, customer); err != nil {
		slog.Error("update conversation counter failed", "customer_id", customer.ID, "error", err)
	}
	slog.Info("new conversation", "conversation_id", conv.ID, "customer_id", customer.ID)
	return conv, nil
}
