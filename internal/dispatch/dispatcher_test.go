package dispatch

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/classifier"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/convo"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/kv"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/routing"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

type fakeCustomers struct {
	mu      sync.Mutex
	byPhone map[string]*store.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{byPhone: make(map[string]*store.Customer)}
}

func (f *fakeCustomers) Get(_ context.Context, id uuid.UUID) (*store.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byPhone {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomers) GetByPhone(_ context.Context, phone string) (*store.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byPhone[phone], nil
}

func (f *fakeCustomers) Create(_ context.Context, c *store.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byPhone[c.Phone] = c
	return nil
}

func (f *fakeCustomers) Update(_ context.Context, c *store.Customer) error { return nil }

type fakeConversations struct {
	mu    sync.Mutex
	convs map[uuid.UUID]*store.Conversation
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{convs: make(map[uuid.UUID]*store.Conversation)}
}

func (f *fakeConversations) Get(_ context.Context, id uuid.UUID) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.convs[id], nil
}

func (f *fakeConversations) LatestActive(_ context.Context, customerID uuid.UUID) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *store.Conversation
	for _, c := range f.convs {
		if c.CustomerID != customerID || c.Status.IsTerminal() {
			continue
		}
		if latest == nil || c.StartedAt.After(latest.StartedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (f *fakeConversations) LatestResolvedSince(_ context.Context, customerID uuid.UUID, cutoff time.Time) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *store.Conversation
	for _, c := range f.convs {
		if c.CustomerID != customerID || c.Status != store.StatusResolved {
			continue
		}
		anchor := c.StartedAt
		if c.ResolvedAt != nil {
			anchor = *c.ResolvedAt
		}
		if !anchor.After(cutoff) {
			continue
		}
		if latest == nil || c.StartedAt.After(latest.StartedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (f *fakeConversations) Create(_ context.Context, c *store.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs[c.ID] = c
	return nil
}

func (f *fakeConversations) Update(_ context.Context, c *store.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs[c.ID] = c
	return nil
}

type fakeMessages struct {
	mu   sync.Mutex
	msgs []*store.Message
}

func (f *fakeMessages) Create(_ context.Context, m *store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeMessages) SetIntent(_ context.Context, id uuid.UUID, intent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			m.Intent = intent
		}
	}
	return nil
}

func (f *fakeMessages) MarkRead(_ context.Context, id uuid.UUID) error { return nil }

func (f *fakeMessages) ListByConversation(_ context.Context, convID uuid.UUID) ([]store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Message
	for _, m := range f.msgs {
		if m.ConversationID == convID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessages) byRole(role store.SenderRole) []*store.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Message
	for _, m := range f.msgs {
		if m.SenderRole == role {
			out = append(out, m)
		}
	}
	return out
}

type fakeClassifier struct {
	mu      sync.Mutex
	result  classifier.Result
	calls   int
	lastReq classifier.Request
}

func (f *fakeClassifier) Analyze(_ context.Context, req classifier.Request) classifier.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	return f.result
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	markRead []string
}

func (f *fakeSender) Send(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) MarkRead(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markRead = append(f.markRead, messageID)
	return nil
}

func (f *fakeSender) Name() string { return "fake" }

type fakeNotifier struct {
	mu         sync.Mutex
	messages   int
	newConvs   int
	statuses   int
	queueSizes []map[string]int64
}

func (f *fakeNotifier) NotifyMessage(uuid.UUID, string, *store.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages++
}

func (f *fakeNotifier) NotifyNewConversation(*store.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newConvs++
}

func (f *fakeNotifier) NotifyStatusChange(*store.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses++
}

func (f *fakeNotifier) NotifyQueueSizes(sizes map[string]int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queueSizes = append(f.queueSizes, sizes)
}

type harness struct {
	d        *Dispatcher
	convs    *fakeConversations
	msgs     *fakeMessages
	cls      *fakeClassifier
	sender   *fakeSender
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := kv.NewMemory()
	convs := newFakeConversations()
	msgs := &fakeMessages{}
	cls := &fakeClassifier{}
	sender := &fakeSender{}
	notifier := &fakeNotifier{}

	d := New(
		store.Stores{Customers: newFakeCustomers(), Conversations: convs, Messages: msgs},
		convo.NewContextStore(backend, 10, 24*time.Hour),
		convo.NewDebounceGate(backend, 5*time.Millisecond),
		convo.NewDedupGuard(backend),
		routing.NewQueueRouter(backend, routing.DefaultCatalog()),
		cls,
		sender,
		notifier,
		NewHours(config.HoursConfig{WeekdayStart: "00:00", WeekdayEnd: "23:59", Saturday: true, SaturdayEnd: "23:59", Sunday: true}),
	)
	return &harness{d: d, convs: convs, msgs: msgs, cls: cls, sender: sender, notifier: notifier}
}

func (h *harness) singleConversation(t *testing.T) *store.Conversation {
	t.Helper()
	h.convs.mu.Lock()
	defer h.convs.mu.Unlock()
	if len(h.convs.convs) != 1 {
		t.Fatalf("have %d conversations, want 1", len(h.convs.convs))
	}
	for _, c := range h.convs.convs {
		return c
	}
	return nil
}

func TestHandleInbound_GeneralIntentStaysWithBot(t *testing.T) {
	h := newHarness(t)
	h.cls.result = classifier.Result{
		Intent:     "geral",
		NeedsHuman: false,
		Response:   "Os preços estão no App GBI!",
		Confidence: 0.9,
	}

	h.d.HandleInbound(context.Background(), Inbound{
		Phone:            "5553991629874",
		Text:             "Qual o preço da gasolina?",
		ChannelMessageID: "wamid.1",
		SenderName:       "João",
	})

	conv := h.singleConversation(t)
	if conv.Status != store.StatusBotHandling {
		t.Errorf("status = %q, want bot_handling", conv.Status)
	}
	if conv.Sector != "geral" || conv.Intent != "geral" {
		t.Errorf("sector/intent = %q/%q, want geral/geral", conv.Sector, conv.Intent)
	}
	if got := h.sender.sent; len(got) != 1 || got[0] != "Os preços estão no App GBI!" {
		t.Errorf("sent = %v", got)
	}
	if got := h.sender.markRead; len(got) != 1 || got[0] != "wamid.1" {
		t.Errorf("markRead = %v", got)
	}
	if n := len(h.msgs.byRole(store.RoleCustomer)); n != 1 {
		t.Errorf("customer messages = %d, want 1", n)
	}
	if n := len(h.msgs.byRole(store.RoleBot)); n != 1 {
		t.Errorf("bot messages = %d, want 1", n)
	}
	sizes, _ := h.d.QueueSizes(context.Background())
	for sector, n := range sizes {
		if n != 0 {
			t.Errorf("queue %s has %d entries, want 0", sector, n)
		}
	}
	if h.cls.lastReq.CustomerName != "João" {
		t.Errorf("classifier saw customer %q", h.cls.lastReq.CustomerName)
	}
}

func TestHandleInbound_EscalationQueuesConversation(t *testing.T) {
	h := newHarness(t)
	h.cls.result = classifier.Result{
		Intent:     "atendente",
		NeedsHuman: true,
		Response:   "Vou te transferir para um atendente.",
		Confidence: 0.95,
	}

	h.d.HandleInbound(context.Background(), Inbound{
		Phone: "5553991629874",
		Text:  "quero falar com atendente",
	})

	conv := h.singleConversation(t)
	if conv.Status != store.StatusWaitingQueue {
		t.Errorf("status = %q, want waiting_queue", conv.Status)
	}
	if conv.Sector != "atendimento_humano" {
		t.Errorf("sector = %q, want atendimento_humano", conv.Sector)
	}
	sizes, _ := h.d.QueueSizes(context.Background())
	if sizes["atendimento_humano"] != 1 {
		t.Errorf("atendimento_humano queue = %d, want 1", sizes["atendimento_humano"])
	}
	if h.notifier.newConvs != 1 {
		t.Errorf("new-conversation notifications = %d, want 1", h.notifier.newConvs)
	}
	if len(h.notifier.queueSizes) == 0 {
		t.Error("queue sizes were never broadcast")
	}
}

func TestHandleInbound_InProgressSkipsBot(t *testing.T) {
	h := newHarness(t)
	h.cls.result = classifier.Result{Intent: "geral", Response: "não deveria ser enviado"}

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "oi"})
	conv := h.singleConversation(t)
	conv.Status = store.StatusInProgress
	h.cls.calls = 0
	h.sender.sent = nil

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "e aí, alguma novidade?"})

	if h.cls.calls != 0 {
		t.Errorf("classifier ran %d times during human handling, want 0", h.cls.calls)
	}
	if len(h.sender.sent) != 0 {
		t.Errorf("bot replied during human handling: %v", h.sender.sent)
	}
	// The customer message is still persisted and pushed to dashboards.
	if n := len(h.msgs.byRole(store.RoleCustomer)); n != 2 {
		t.Errorf("customer messages = %d, want 2", n)
	}
}

func TestHandleInbound_SupersededCycleAborts(t *testing.T) {
	h := newHarness(t)
	h.d.debounce = convo.NewDebounceGate(kv.NewMemory(), 60*time.Millisecond)
	h.cls.result = classifier.Result{Intent: "geral", Response: "resposta"}

	done := make(chan struct{})
	go func() {
		// A newer message arrives while the first cycle sleeps.
		time.Sleep(15 * time.Millisecond)
		h.d.debounce.Arm(context.Background(), "5553991629874", time.Now())
		close(done)
	}()

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "mensagem picada 1"})
	<-done

	if h.cls.calls != 0 {
		t.Errorf("superseded cycle still classified (%d calls)", h.cls.calls)
	}
	if len(h.sender.sent) != 0 {
		t.Errorf("superseded cycle still replied: %v", h.sender.sent)
	}
	// The message itself is never lost.
	if n := len(h.msgs.byRole(store.RoleCustomer)); n != 1 {
		t.Errorf("customer messages = %d, want 1", n)
	}
}

func TestHandleInbound_DuplicateResponseSuppressed(t *testing.T) {
	h := newHarness(t)
	h.cls.result = classifier.Result{
		Intent:   "geral",
		Response: "Baixe o app: https://play.google.com/store/apps/details?id=com.coffeeincode.postoaki.rede84",
	}

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "preço?"})
	// Different wording, same app-link payload: collapses to the static key.
	h.cls.result.Response = "Veja os preços no App GBI: https://apps.apple.com/br/app/gbi/id1576742008"
	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "quanto tá a gasolina?"})

	if len(h.sender.sent) != 1 {
		t.Errorf("sent %d replies, want 1 (duplicate suppressed)", len(h.sender.sent))
	}
	if n := len(h.msgs.byRole(store.RoleBot)); n != 1 {
		t.Errorf("bot messages = %d, want 1", n)
	}
	// Both customer messages survive.
	if n := len(h.msgs.byRole(store.RoleCustomer)); n != 2 {
		t.Errorf("customer messages = %d, want 2", n)
	}
}

func TestHandleInbound_ReactivatesRecentlyResolved(t *testing.T) {
	h := newHarness(t)
	h.cls.result = classifier.Result{Intent: "geral", Response: "Olá de novo!"}

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "oi"})
	conv := h.singleConversation(t)

	resolvedAt := time.Now().Add(-23 * time.Hour)
	conv.Status = store.StatusResolved
	conv.ResolvedAt = &resolvedAt
	conv.Sector = "comercial"
	conv.OperatorID = "op-1"

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "voltei"})

	got := h.singleConversation(t)
	if got.ID != conv.ID {
		t.Fatal("a new conversation was created instead of reactivating")
	}
	if got.Status != store.StatusBotHandling && got.Status != store.StatusWaitingQueue {
		t.Errorf("status = %q after reactivation", got.Status)
	}
	if got.OperatorID != "" {
		t.Errorf("operator assignment survived reactivation: %q", got.OperatorID)
	}
	if got.ResolvedAt != nil {
		t.Error("resolved_at survived reactivation")
	}
}

func TestHandleInbound_StaleResolvedStartsNewConversation(t *testing.T) {
	h := newHarness(t)
	h.cls.result = classifier.Result{Intent: "geral", Response: "Olá!"}

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "oi"})
	old := h.singleConversation(t)

	resolvedAt := time.Now().Add(-25 * time.Hour)
	old.Status = store.StatusResolved
	old.ResolvedAt = &resolvedAt
	old.StartedAt = time.Now().Add(-26 * time.Hour)

	h.d.HandleInbound(context.Background(), Inbound{Phone: "5553991629874", Text: "oi de novo"})

	h.convs.mu.Lock()
	n := len(h.convs.convs)
	h.convs.mu.Unlock()
	if n != 2 {
		t.Fatalf("have %d conversations, want 2 (stale episode stays resolved)", n)
	}
	if old.Status != store.StatusResolved {
		t.Errorf("stale conversation status = %q, want resolved", old.Status)
	}
}
