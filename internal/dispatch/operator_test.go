package dispatch

import (
	"context"
	"testing"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/classifier"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

// queueEscalated runs one inbound escalation so a conversation is waiting
// in the atendimento_humano line.
func queueEscalated(t *testing.T, h *harness) *store.Conversation {
	t.Helper()
	h.cls.result = classifier.Result{
		Intent:     "atendente",
		NeedsHuman: true,
		Response:   "Vou te transferir.",
	}
	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "atendente por favor"})
	return h.singleConversation(t)
}

func TestClaim(t *testing.T) {
	h := newHarness(t)
	conv := queueEscalated(t, h)
	ctx := context.Background()

	claimed, err := h.d.Claim(ctx, conv.ID, "op-7")
	if err != nil {
		t.Fatal(err)
	}
	if claimed.Status != store.StatusInProgress {
		t.Errorf("status = %q, want in_progress", claimed.Status)
	}
	if claimed.OperatorID != "op-7" {
		t.Errorf("operator = %q, want op-7", claimed.OperatorID)
	}
	sizes, _ := h.d.QueueSizes(ctx)
	if sizes["atendimento_humano"] != 0 {
		t.Errorf("queue size = %d after claim, want 0", sizes["atendimento_humano"])
	}
	if h.notifier.statuses == 0 {
		t.Error("status change was never broadcast")
	}
}

func TestResolveAndClose(t *testing.T) {
	h := newHarness(t)
	conv := queueEscalated(t, h)
	ctx := context.Background()

	if _, err := h.d.Claim(ctx, conv.ID, "op-7"); err != nil {
		t.Fatal(err)
	}
	resolved, err := h.d.Resolve(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != store.StatusResolved {
		t.Errorf("status = %q, want resolved", resolved.Status)
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolved_at not set")
	}

	closed, err := h.d.Close(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != store.StatusClosed {
		t.Errorf("status = %q, want closed", closed.Status)
	}
}

func TestResolveStraightFromQueue(t *testing.T) {
	h := newHarness(t)
	conv := queueEscalated(t, h)
	ctx := context.Background()

	if _, err := h.d.Resolve(ctx, conv.ID); err != nil {
		t.Fatal(err)
	}
	sizes, _ := h.d.QueueSizes(ctx)
	if sizes["atendimento_humano"] != 0 {
		t.Errorf("queue size = %d after resolve, want 0", sizes["atendimento_humano"])
	}
}

func TestCloseFromQueueIsRejected(t *testing.T) {
	h := newHarness(t)
	conv := queueEscalated(t, h)

	if _, err := h.d.Close(context.Background(), conv.ID); err == nil {
		t.Fatal("closing a waiting conversation should fail")
	}
}

func TestSendOperatorMessage(t *testing.T) {
	h := newHarness(t)
	conv := queueEscalated(t, h)
	ctx := context.Background()

	if _, err := h.d.Claim(ctx, conv.ID, "op-7"); err != nil {
		t.Fatal(err)
	}
	h.sender.sent = nil

	msg, err := h.d.SendOperatorMessage(ctx, conv.ID, "op-7", "Olá, aqui é a Ana do comercial.")
	if err != nil {
		t.Fatal(err)
	}
	if msg.SenderRole != store.RoleOperator || msg.SenderID != "op-7" {
		t.Errorf("message attribution = %q/%q", msg.SenderRole, msg.SenderID)
	}
	if len(h.sender.sent) != 1 || h.sender.sent[0] != "Olá, aqui é a Ana do comercial." {
		t.Errorf("sent = %v", h.sender.sent)
	}
	if n := len(h.msgs.byRole(store.RoleOperator)); n != 1 {
		t.Errorf("operator messages = %d, want 1", n)
	}
}
