// Package paste implements paste lifecycle logic: size/expiration
// validation on creation, single-view/decrementing-view consumption,
// and both delete-authorization schemes, layered over a storage.Store
// so HTTP handlers stay thin.
package paste

import (
	"context"
	"errors"

	"github.com/LonleySailor/zkpaste/internal/authz"
	"github.com/LonleySailor/zkpaste/internal/storage"
	"github.com/LonleySailor/zkpaste/pkg/idgen"
)

// Kind classifies why a Service call failed, so handlers can map it
// to the right status code and error string without inspecting Go
// error values directly.
type Kind string

const (
	KindNone          Kind = ""
	KindTooLarge      Kind = "too_large"
	KindBadExpiration Kind = "bad_expiration"
	KindNotFound      Kind = "not_found"
	KindGone          Kind = "gone"
	KindInvalidToken  Kind = "invalid_token"
	KindInvalidAuth   Kind = "invalid_auth"
	KindInternal      Kind = "internal"
)

// Error wraps a Kind for the handler layer.
type Error struct {
	Kind Kind
}

func (e *Error) Error() string { return string(e.Kind) }

func kindErr(k Kind) error { return &Error{Kind: k} }

// CreateInput is the fully-validated request to create a paste.
// Validation of sizes/expiration happens in pkg/validation before
// this is constructed; Service re-checks the size limit defensively.
type CreateInput struct {
	Now               int64
	Ct                string
	Iv                string
	Mime              string
	ExpireTs          int64
	SingleView        bool
	ViewsAllowed      int
	AllowChat         bool
	DeleteAuth        []byte // nil for Scheme T
	DecodedCtLen      int
	MaxPasteSizeBytes int
	MaxExpireSeconds  int64
}

// CreateOutput is returned to the client: the delete token is
// populated only for Scheme T.
type CreateOutput struct {
	ID          string
	DeleteToken string
}

// Service implements paste lifecycle business logic over a Store.
type Service struct {
	store      storage.Store
	idGen      *idgen.Generator
	pepper     []byte
	maxRetries int
}

// New returns a Service backed by store, minting ids of the given
// length and hashing delete proofs with pepper.
func New(store storage.Store, idLength int, pepper []byte) *Service {
	return &Service{
		store:  store,
		idGen:  idgen.NewGenerator(idLength),
		pepper: pepper,
	}
}

// Create re-checks the size limit, mints an id and delete-auth hash,
// and inserts the row.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateOutput, error) {
	if in.DecodedCtLen > in.MaxPasteSizeBytes {
		return nil, kindErr(KindTooLarge)
	}

	viewsAllowed := in.ViewsAllowed
	if in.SingleView && viewsAllowed == 0 {
		viewsAllowed = 1
	}

	var deleteToken []byte
	var proof []byte
	if in.DeleteAuth != nil {
		proof = in.DeleteAuth // Scheme P: client-supplied authenticator
	} else {
		token, err := idgen.NewDeleteToken()
		if err != nil {
			return nil, kindErr(KindInternal)
		}
		deleteToken = token
		proof = token // Scheme T: server-minted token
	}
	hash := authz.HashDeleteProof(s.pepper, proof)

	id, err := s.idGen.GenerateUnique(func(candidate string) (bool, error) {
		_, outcome, err := s.store.GetPaste(ctx, candidate, in.Now)
		if err != nil {
			return false, err
		}
		return outcome == storage.OutcomeFound, nil
	})
	if err != nil {
		return nil, kindErr(KindInternal)
	}

	p := &storage.Paste{
		ID:             id,
		Ct:             in.Ct,
		Iv:             in.Iv,
		Mime:           in.Mime,
		ExpireTs:       in.ExpireTs,
		SingleView:     viewsAllowed == 1,
		ViewsAllowed:   viewsAllowed,
		ViewsRemaining: viewsAllowed,
		AllowChat:      in.AllowChat,
		DeleteAuthHash: hash,
	}

	// Another insert can claim the id after the existence check above;
	// on ErrIDConflict retry with a fresh id, a bounded number of times.
	const maxInsertAttempts = 5
	err = s.store.InsertPaste(ctx, p)
	for attempt := 1; errors.Is(err, storage.ErrIDConflict) && attempt < maxInsertAttempts; attempt++ {
		if p.ID, err = s.idGen.Generate(); err == nil {
			err = s.store.InsertPaste(ctx, p)
		}
	}
	if err != nil {
		return nil, kindErr(KindInternal)
	}

	out := &CreateOutput{ID: p.ID}
	if deleteToken != nil {
		out.DeleteToken = idgen.EncodeURL(deleteToken)
	}
	return out, nil
}

// PasteView is the data returned to a GET, with no authenticator
// material.
type PasteView struct {
	Ct           string
	Iv           string
	Mime         string
	ExpireTs     int64
	SingleView   bool
	ViewsAllowed int
	AllowChat    bool
}

// Read consumes one view, returning KindNotFound/KindGone as
// appropriate.
func (s *Service) Read(ctx context.Context, id string, now int64) (*PasteView, error) {
	p, outcome, err := s.store.ConsumeView(ctx, id, now)
	if err != nil {
		return nil, kindErr(KindInternal)
	}
	switch outcome {
	case storage.OutcomeNotFound:
		return nil, kindErr(KindNotFound)
	case storage.OutcomeGone:
		return nil, kindErr(KindGone)
	}
	return &PasteView{
		Ct:           p.Ct,
		Iv:           p.Iv,
		Mime:         p.Mime,
		ExpireTs:     p.ExpireTs,
		SingleView:   p.SingleView,
		ViewsAllowed: p.ViewsAllowed,
		AllowChat:    p.AllowChat,
	}, nil
}

// DeleteByToken implements Scheme T verification and delete.
func (s *Service) DeleteByToken(ctx context.Context, id string, token []byte, now int64) error {
	return s.deleteWithProof(ctx, id, token, now, KindInvalidToken)
}

// DeleteByAuth implements Scheme P verification and delete.
func (s *Service) DeleteByAuth(ctx context.Context, id string, auth []byte, now int64) error {
	return s.deleteWithProof(ctx, id, auth, now, KindInvalidAuth)
}

func (s *Service) deleteWithProof(ctx context.Context, id string, proof []byte, now int64, mismatchKind Kind) error {
	p, outcome, err := s.store.GetPaste(ctx, id, now)
	if err != nil {
		return kindErr(KindInternal)
	}
	switch outcome {
	case storage.OutcomeNotFound:
		return kindErr(KindNotFound)
	case storage.OutcomeGone:
		return kindErr(KindGone)
	}

	if !authz.VerifyDeleteProof(s.pepper, proof, p.DeleteAuthHash) {
		return kindErr(mismatchKind)
	}

	if _, err := s.store.DeletePaste(ctx, id); err != nil {
		return kindErr(KindInternal)
	}
	return nil
}
