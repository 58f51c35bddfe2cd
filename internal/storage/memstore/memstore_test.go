package memstore

import (
	"context"
	"testing"

	"github.com/LonleySailor/zkpaste/internal/storage"
)

func newPaste(id string, viewsAllowed int) *storage.Paste {
	return &storage.Paste{
		ID:             id,
		Ct:             "ct",
		Iv:             "iv",
		Mime:           "text/plain",
		ExpireTs:       1000,
		SingleView:     viewsAllowed == 1,
		ViewsAllowed:   viewsAllowed,
		ViewsRemaining: viewsAllowed,
		AllowChat:      true,
		DeleteAuthHash: []byte("hash"),
		CreatedTs:      1,
	}
}

func TestInsertGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.InsertPaste(ctx, newPaste("abc", 0)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	p, outcome, err := s.GetPaste(ctx, "abc", 500)
	if err != nil || outcome != storage.OutcomeFound {
		t.Fatalf("get: outcome=%v err=%v", outcome, err)
	}
	if p.ID != "abc" {
		t.Errorf("got id %q", p.ID)
	}
}

func TestInsertConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.InsertPaste(ctx, newPaste("abc", 0)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.InsertPaste(ctx, newPaste("abc", 0)); err != storage.ErrIDConflict {
		t.Fatalf("expected ErrIDConflict, got %v", err)
	}
}

func TestGetExpiredReturnsGone(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.InsertPaste(ctx, newPaste("abc", 0))

	_, outcome, err := s.GetPaste(ctx, "abc", 5000)
	if err != nil || outcome != storage.OutcomeGone {
		t.Fatalf("expected gone, got outcome=%v err=%v", outcome, err)
	}

	// Reaped on read: a second lookup reports not-found, not gone.
	_, outcome, _ = s.GetPaste(ctx, "abc", 5000)
	if outcome != storage.OutcomeNotFound {
		t.Fatalf("expected not-found after reap, got %v", outcome)
	}
}

func TestConsumeViewSingleView(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.InsertPaste(ctx, newPaste("abc", 1))

	_, outcome, err := s.ConsumeView(ctx, "abc", 500)
	if err != nil || outcome != storage.OutcomeFound {
		t.Fatalf("first consume: outcome=%v err=%v", outcome, err)
	}

	_, outcome, err = s.ConsumeView(ctx, "abc", 500)
	if err != nil || outcome != storage.OutcomeNotFound {
		t.Fatalf("second consume expected not-found, got outcome=%v err=%v", outcome, err)
	}
}

func TestConsumeViewUnlimitedSurvivesManyReads(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.InsertPaste(ctx, newPaste("abc", 0))

	for i := 0; i < 5; i++ {
		p, outcome, err := s.ConsumeView(ctx, "abc", 500)
		if err != nil || outcome != storage.OutcomeFound {
			t.Fatalf("consume %d: outcome=%v err=%v", i, outcome, err)
		}
		if p.ViewsRemaining != 0 {
			t.Errorf("consume %d: expected viewsRemaining to stay 0, got %d", i, p.ViewsRemaining)
		}
	}
}

func TestConsumeViewDecrementing(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.InsertPaste(ctx, newPaste("abc", 3))

	for i := 0; i < 3; i++ {
		p, outcome, err := s.ConsumeView(ctx, "abc", 500)
		if err != nil || outcome != storage.OutcomeFound {
			t.Fatalf("consume %d: outcome=%v err=%v", i, outcome, err)
		}
		if p.ViewsRemaining != 3-i-1 {
			t.Errorf("consume %d: viewsRemaining=%d", i, p.ViewsRemaining)
		}
	}

	_, outcome, _ := s.ConsumeView(ctx, "abc", 500)
	if outcome != storage.OutcomeNotFound {
		t.Fatalf("expected not-found after exhausting views, got %v", outcome)
	}
}

func TestAppendChatRingTrim(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.InsertPaste(ctx, newPaste("abc", 0))

	for i := 0; i < 5; i++ {
		count, outcome, err := s.AppendChat(ctx, "abc", "ct", "iv", int64(i), 3)
		if err != nil || outcome != storage.OutcomeFound {
			t.Fatalf("append %d: outcome=%v err=%v", i, outcome, err)
		}
		if i < 3 && count != i+1 {
			t.Errorf("append %d: count=%d", i, count)
		}
		if i >= 3 && count != 3 {
			t.Errorf("append %d: expected trimmed count 3, got %d", i, count)
		}
	}

	msgs, _, _ := s.ListChat(ctx, "abc", 500)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages after trim, got %d", len(msgs))
	}
}

func TestAppendChatDisabled(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := newPaste("abc", 0)
	p.AllowChat = false
	s.InsertPaste(ctx, p)

	_, _, err := s.AppendChat(ctx, "abc", "ct", "iv", 1, 50)
	if err != storage.ErrChatDisabled {
		t.Fatalf("expected ErrChatDisabled, got %v", err)
	}
}

func TestReapExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.InsertPaste(ctx, newPaste("a", 0))
	p2 := newPaste("b", 0)
	p2.ExpireTs = 99999
	s.InsertPaste(ctx, p2)

	n, err := s.ReapExpired(ctx, 5000)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 reaped, got %d", n)
	}

	_, outcome, _ := s.GetPaste(ctx, "b", 5000)
	if outcome != storage.OutcomeFound {
		t.Errorf("expected b to survive reap, got %v", outcome)
	}
}

func TestDeletePaste(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.InsertPaste(ctx, newPaste("abc", 0))

	deleted, err := s.DeletePaste(ctx, "abc")
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}

	deleted, err = s.DeletePaste(ctx, "abc")
	if err != nil || deleted {
		t.Fatalf("second delete: deleted=%v err=%v", deleted, err)
	}
}
