// Package chat implements the bounded append-only chat log attached
// to a paste. The ring-trim-in-transaction guarantee lives in the
// storage.Store implementations; this package only maps outcomes to
// the Kind taxonomy the handler layer expects, the same separation
// paste.Service keeps.
package chat

import (
	"context"
	"errors"

	"github.com/LonleySailor/zkpaste/internal/storage"
)

type Kind string

const (
	KindNone        Kind = ""
	KindTooLarge    Kind = "too_large"
	KindNotFound    Kind = "not_found"
	KindGone        Kind = "gone"
	KindChatDisable Kind = "chat_disabled"
	KindInternal    Kind = "internal"
)

type Error struct{ Kind Kind }

func (e *Error) Error() string { return string(e.Kind) }

func kindErr(k Kind) error { return &Error{Kind: k} }

// Message is one entry returned to a client.
type Message struct {
	Ct        string
	Iv        string
	CreatedTs int64
}

// Service implements append/list over a Store.
type Service struct {
	store       storage.Store
	maxMessages int
}

// New returns a Service that caps each paste's chat log at
// maxMessages entries.
func New(store storage.Store, maxMessages int) *Service {
	return &Service{store: store, maxMessages: maxMessages}
}

// Append inserts a message, trims the ring, and returns the resulting
// message count.
func (s *Service) Append(ctx context.Context, pasteID, ct, iv string, now int64) (int, error) {
	count, outcome, err := s.store.AppendChat(ctx, pasteID, ct, iv, now, s.maxMessages)
	if err != nil {
		if errors.Is(err, storage.ErrChatDisabled) {
			return 0, kindErr(KindChatDisable)
		}
		return 0, kindErr(KindInternal)
	}
	switch outcome {
	case storage.OutcomeNotFound:
		return 0, kindErr(KindNotFound)
	case storage.OutcomeGone:
		return 0, kindErr(KindGone)
	}
	return count, nil
}

// List returns a paste's chat messages oldest-first.
func (s *Service) List(ctx context.Context, pasteID string, now int64) ([]Message, error) {
	msgs, outcome, err := s.store.ListChat(ctx, pasteID, now)
	if err != nil {
		return nil, kindErr(KindInternal)
	}
	switch outcome {
	case storage.OutcomeNotFound:
		return nil, kindErr(KindNotFound)
	case storage.OutcomeGone:
		return nil, kindErr(KindGone)
	}

	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Message{Ct: m.Ct, Iv: m.Iv, CreatedTs: m.CreatedTs}
	}
	return out, nil
}
