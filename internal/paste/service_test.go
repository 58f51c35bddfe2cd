package paste

import (
	"context"
	"testing"

	"github.com/LonleySailor/zkpaste/internal/storage/memstore"
	"github.com/LonleySailor/zkpaste/pkg/idgen"
)

func newTestService() *Service {
	return New(memstore.New(), 10, []byte("test-pepper"))
}

func TestCreateSchemeTReturnsDeleteToken(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	out, err := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ciphertext",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      10,
		MaxPasteSizeBytes: 1000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.ID == "" {
		t.Fatal("expected non-empty id")
	}
	if out.DeleteToken == "" {
		t.Fatal("expected non-empty delete token for scheme T")
	}
}

func TestCreateSchemePReturnsNoDeleteToken(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	out, err := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ciphertext",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      10,
		MaxPasteSizeBytes: 1000,
		DeleteAuth:        []byte("client-authenticator"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.DeleteToken != "" {
		t.Fatalf("expected empty delete token for scheme P, got %q", out.DeleteToken)
	}
}

func TestCreateTooLarge(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Create(ctx, CreateInput{
		Now:               1000,
		ExpireTs:          2000,
		DecodedCtLen:      2000,
		MaxPasteSizeBytes: 1000,
	})
	e, ok := err.(*Error)
	if !ok || e.Kind != KindTooLarge {
		t.Fatalf("expected KindTooLarge, got %v", err)
	}
}

func TestReadNotFound(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Read(ctx, "missing", 1000)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestReadSingleViewConsumesAndThenNotFound(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	out, _ := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ct",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      2,
		MaxPasteSizeBytes: 1000,
		SingleView:        true,
	})

	view, err := s.Read(ctx, out.ID, 1500)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if view.Ct != "ct" {
		t.Errorf("unexpected view: %+v", view)
	}

	_, err = s.Read(ctx, out.ID, 1500)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindNotFound {
		t.Fatalf("expected second read to be not-found, got %v", err)
	}
}

func TestReadDefaultPasteSurvivesManyReads(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	out, _ := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ct",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      2,
		MaxPasteSizeBytes: 1000,
	})

	for i := 0; i < 5; i++ {
		view, err := s.Read(ctx, out.ID, 1500)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if view.Ct != "ct" {
			t.Errorf("read %d: unexpected view: %+v", i, view)
		}
	}
}

func TestReadViewsAllowedDecrementsThenNotFound(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	out, _ := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ct",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      2,
		MaxPasteSizeBytes: 1000,
		ViewsAllowed:      2,
	})

	if _, err := s.Read(ctx, out.ID, 1500); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := s.Read(ctx, out.ID, 1500); err != nil {
		t.Fatalf("second read: %v", err)
	}

	_, err := s.Read(ctx, out.ID, 1500)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindNotFound {
		t.Fatalf("expected third read to be not-found, got %v", err)
	}
}

func TestDeleteByTokenSuccess(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	out, _ := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ct",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      2,
		MaxPasteSizeBytes: 1000,
	})

	tokenBytes, err := idgen.DecodeURL(out.DeleteToken)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}

	if err := s.DeleteByToken(ctx, out.ID, tokenBytes, 1500); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = s.Read(ctx, out.ID, 1500)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindNotFound {
		t.Fatalf("expected paste gone after delete, got %v", err)
	}
}

func TestDeleteByTokenWrongTokenIsInvalid(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	out, _ := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ct",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      2,
		MaxPasteSizeBytes: 1000,
	})

	err := s.DeleteByToken(ctx, out.ID, []byte("wrong-token-entirely"), 1500)
	e, ok := err.(*Error)
	if !ok || e.Kind != KindInvalidToken {
		t.Fatalf("expected KindInvalidToken, got %v", err)
	}
}

func TestDeleteByAuthSuccess(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	auth := []byte("client-authenticator")
	out, _ := s.Create(ctx, CreateInput{
		Now:               1000,
		Ct:                "ct",
		Iv:                "iv",
		ExpireTs:          2000,
		DecodedCtLen:      2,
		MaxPasteSizeBytes: 1000,
		DeleteAuth:        auth,
	})

	if err := s.DeleteByAuth(ctx, out.ID, auth, 1500); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
