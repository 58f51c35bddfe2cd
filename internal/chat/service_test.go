package chat

import (
	"context"
	"testing"

	"github.com/LonleySailor/zkpaste/internal/storage"
	"github.com/LonleySailor/zkpaste/internal/storage/memstore"
)

func setup(t *testing.T, allowChat bool) (*Service, string) {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	store.InsertPaste(ctx, &storage.Paste{
		ID: "p1", ExpireTs: 5000, AllowChat: allowChat, DeleteAuthHash: []byte("h"),
	})
	return New(store, 3), "p1"
}

func TestAppendAndList(t *testing.T) {
	s, id := setup(t, true)
	ctx := context.Background()

	count, err := s.Append(ctx, id, "ct1", "iv1", 100)
	if err != nil || count != 1 {
		t.Fatalf("append: count=%d err=%v", count, err)
	}

	msgs, err := s.List(ctx, id, 200)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("list: len=%d err=%v", len(msgs), err)
	}
	if msgs[0].Ct != "ct1" {
		t.Errorf("unexpected message: %+v", msgs[0])
	}
}

func TestAppendRingTrim(t *testing.T) {
	s, id := setup(t, true)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, id, "ct", "iv", int64(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, _ := s.List(ctx, id, 500)
	if len(msgs) != 3 {
		t.Fatalf("expected ring trimmed to 3, got %d", len(msgs))
	}
}

func TestAppendChatDisabled(t *testing.T) {
	s, id := setup(t, false)
	ctx := context.Background()

	_, err := s.Append(ctx, id, "ct", "iv", 100)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindChatDisable {
		t.Fatalf("expected KindChatDisable, got %v", err)
	}
}

func TestAppendToMissingParent(t *testing.T) {
	store := memstore.New()
	s := New(store, 3)

	_, err := s.Append(context.Background(), "missing", "ct", "iv", 100)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestListMissingParent(t *testing.T) {
	store := memstore.New()
	s := New(store, 3)

	_, err := s.List(context.Background(), "missing", 100)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}
