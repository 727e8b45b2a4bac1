package convo

import (
	"fmt"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// ReactivationWindow is how long after resolution a new inbound message
// reopens the same conversation instead of starting a fresh one.
const ReactivationWindow = 24 * time.Hour

// validTransitions is the conversation lifecycle:
//
//	bot_handling → waiting_queue → in_progress → resolved → closed
//
// with operator claim allowed straight from bot_handling, resolution
// allowed from any non-terminal state, and no exit from closed.
var validTransitions = map[store.ConversationStatus][]store.ConversationStatus{
	store.StatusBotHandling:  {store.StatusWaitingQueue, store.StatusInProgress, store.StatusResolved},
	store.StatusWaitingQueue: {store.StatusInProgress, store.StatusResolved},
	store.StatusInProgress:   {store.StatusResolved, store.StatusClosed},
	store.StatusResolved:     {store.StatusClosed},
	store.StatusClosed:       nil,
}

// CanTransition reports whether from → to is a valid lifecycle step.
func CanTransition(from, to store.ConversationStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves c to status, applying the timestamps the target state
// requires. It rejects invalid steps so callers cannot corrupt lifecycle
// state.
func Transition(c *store.Conversation, to store.ConversationStatus, now time.Time) error {
	if !CanTransition(c.Status, to) {
		return fmt.Errorf("invalid conversation transition %s → %s", c.Status, to)
	}

	switch to {
	case store.StatusResolved:
		t := now
		c.ResolvedAt = &t
	case store.StatusClosed:
		if c.ResolvedAt == nil {
			t := now
			c.ResolvedAt = &t
		}
	}

	c.Status = to
	return nil
}

// CanReactivate reports whether a resolved conversation is recent enough
// to reopen for a new inbound message. The resolution timestamp anchors
// the window; the start timestamp is the fallback when it is unset.
// Closed conversations never reactivate.
func CanReactivate(c *store.Conversation, now time.Time) bool {
	if c.Status != store.StatusResolved {
		return false
	}
	anchor := c.StartedAt
	if c.ResolvedAt != nil {
		anchor = *c.ResolvedAt
	}
	return now.Sub(anchor) <= ReactivationWindow
}

// Reactivate reopens a resolved conversation: back to the bot, operator
// unassigned, sector and intent cleared so routing restarts neutral.
func Reactivate(c *store.Conversation) {
	c.Status = store.StatusBotHandling
	c.ResolvedAt = nil
	c.OperatorID = ""
	c.Sector = ""
	c.Intent = ""
}
