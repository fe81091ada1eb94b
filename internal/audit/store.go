// internal/audit/store.go
package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Run records one deployment run: which tenant, which document snapshot
// (by hash), and how each step went.
type Run struct {
	ID           string       `json:"id"`
	TenantKey    string       `json:"tenantKey"`
	DocumentHash string       `json:"documentHash"`
	Status       string       `json:"status"` // succeeded | failed
	StartedAt    time.Time    `json:"startedAt"`
	FinishedAt   time.Time    `json:"finishedAt"`
	Steps        []StepResult `json:"steps"`
}

type StepResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

type Store interface {
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

type memStore struct {
	mu   sync.Mutex
	runs []Run
}

// NewMemoryStore is the dev fallback when no database is configured.
func NewMemoryStore() Store {
	return &memStore{}
}

func (m *memStore) RecordRun(ctx context.Context, run Run) error {
	m.mu.Lock()
	m.runs = append(m.runs, run)
	m.mu.Unlock()
	return nil
}

func (m *memStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, len(m.runs))
	copy(out, m.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
