package storage

import "errors"

// ErrIDConflict is returned by InsertPaste when the id already exists;
// callers retry with a freshly generated id (paste.Service bounds
// these retries).
var ErrIDConflict = errors.New("storage: paste id already exists")

// ErrChatDisabled is returned by AppendChat when the parent paste has
// allowChat=false.
var ErrChatDisabled = errors.New("storage: chat is disabled for this paste")
