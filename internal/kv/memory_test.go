package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "a", "1", 0); err != nil {
		t.Fatal(err)
	}
	val, ok, _ := m.Get(ctx, "a")
	if !ok || val != "1" {
		t.Fatalf("Get = (%q, %v), want (\"1\", true)", val, ok)
	}

	// Expired entry behaves as absent.
	m.Set(ctx, "b", "2", time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Error("expired key still present")
	}

	m.Delete(ctx, "a")
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("deleted key still present")
	}
}

func TestMemory_ListOps(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, v := range []string{"x", "y", "x", "z"} {
		m.ListPush(ctx, "q", v)
	}

	if n, _ := m.ListLen(ctx, "q"); n != 4 {
		t.Fatalf("ListLen = %d, want 4", n)
	}

	// FIFO order.
	head, ok, _ := m.ListPop(ctx, "q")
	if !ok || head != "x" {
		t.Fatalf("ListPop = (%q, %v), want (\"x\", true)", head, ok)
	}

	// Remove deletes every occurrence.
	m.ListRemove(ctx, "q", "x")
	if n, _ := m.ListLen(ctx, "q"); n != 2 {
		t.Fatalf("ListLen after remove = %d, want 2", n)
	}

	if _, ok, _ := m.ListPop(ctx, "empty"); ok {
		t.Error("pop on missing list reported a value")
	}
}

func TestMemory_SetOps(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SetAdd(ctx, "ops", "ana")
	m.SetAdd(ctx, "ops", "bruno")
	m.SetAdd(ctx, "ops", "ana") // idempotent

	members, _ := m.SetMembers(ctx, "ops")
	if len(members) != 2 {
		t.Fatalf("SetMembers = %v, want 2 members", members)
	}

	m.SetRemove(ctx, "ops", "ana")
	members, _ = m.SetMembers(ctx, "ops")
	if len(members) != 1 || members[0] != "bruno" {
		t.Fatalf("SetMembers after remove = %v, want [bruno]", members)
	}
}
