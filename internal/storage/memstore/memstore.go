// Package memstore is an in-memory storage.Store used by unit tests
// that don't need a real SQLite file. It implements the full
// transactional contract (atomic view consumption, chat ring-trim,
// cascade delete) under a single mutex.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/LonleySailor/zkpaste/internal/storage"
)

type record struct {
	paste storage.Paste
	chat  []storage.ChatMessage
	nextC int64
}

// Store is a mutex-guarded map implementing storage.Store.
type Store struct {
	mu      sync.Mutex
	records map[string]*record
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[string]*record)}
}

func (s *Store) InsertPaste(ctx context.Context, p *storage.Paste) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[p.ID]; exists {
		return storage.ErrIDConflict
	}
	cp := *p
	s.records[p.ID] = &record{paste: cp}
	return nil
}

func (s *Store) GetPaste(ctx context.Context, id string, now int64) (*storage.Paste, storage.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, storage.OutcomeNotFound, nil
	}
	if r.paste.ExpireTs < now {
		delete(s.records, id)
		return nil, storage.OutcomeGone, nil
	}
	cp := r.paste
	return &cp, storage.OutcomeFound, nil
}

func (s *Store) ConsumeView(ctx context.Context, id string, now int64) (*storage.Paste, storage.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, storage.OutcomeNotFound, nil
	}
	if r.paste.ExpireTs < now {
		delete(s.records, id)
		return nil, storage.OutcomeGone, nil
	}

	cp := r.paste
	if cp.ViewsRemaining > 0 {
		cp.ViewsRemaining--
		if cp.ViewsRemaining <= 0 {
			delete(s.records, id)
		} else {
			r.paste.ViewsRemaining = cp.ViewsRemaining
		}
	}
	return &cp, storage.OutcomeFound, nil
}

func (s *Store) DeletePaste(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *Store) AppendChat(ctx context.Context, pasteID, ct, iv string, now int64, maxMessages int) (int, storage.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pasteID]
	if !ok {
		return 0, storage.OutcomeNotFound, nil
	}
	if r.paste.ExpireTs < now {
		delete(s.records, pasteID)
		return 0, storage.OutcomeGone, nil
	}
	if !r.paste.AllowChat {
		return 0, storage.OutcomeFound, storage.ErrChatDisabled
	}

	r.nextC++
	r.chat = append(r.chat, storage.ChatMessage{
		ID:        r.nextC,
		PasteID:   pasteID,
		Ct:        ct,
		Iv:        iv,
		CreatedTs: now,
	})
	if len(r.chat) > maxMessages {
		r.chat = r.chat[len(r.chat)-maxMessages:]
	}
	return len(r.chat), storage.OutcomeFound, nil
}

func (s *Store) ListChat(ctx context.Context, pasteID string, now int64) ([]storage.ChatMessage, storage.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[pasteID]
	if !ok {
		return nil, storage.OutcomeNotFound, nil
	}
	if r.paste.ExpireTs < now {
		delete(s.records, pasteID)
		return nil, storage.OutcomeGone, nil
	}

	out := make([]storage.ChatMessage, len(r.chat))
	copy(out, r.chat)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedTs != out[j].CreatedTs {
			return out[i].CreatedTs < out[j].CreatedTs
		}
		return out[i].ID < out[j].ID
	})
	return out, storage.OutcomeFound, nil
}

func (s *Store) ReapExpired(ctx context.Context, now int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.records {
		if r.paste.ExpireTs < now {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Close() error { return nil }
