// pkg/kvs/file.go
package kvs

import (
	"context"
	"encoding/json"
	"os"
	"sync"
)

// FileSink accumulates entries and writes them as one generated JSON
// document, for local inspection and offline runs.
type FileSink struct {
	path string

	mu      sync.Mutex
	entries map[string]json.RawMessage
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, entries: map[string]json.RawMessage{}}
}

func (s *FileSink) Put(ctx context.Context, key string, value []byte) error {
	if err := checkSize(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = json.RawMessage(value)
	s.mu.Unlock()
	return nil
}

// Flush writes everything accumulated so far to the target path.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}
