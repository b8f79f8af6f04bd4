package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps tabs in process memory. It backs tests and local runs;
// nothing in it survives a restart.
type MemoryStore struct {
	mu   sync.Mutex
	tabs map[string][]Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tabs: make(map[string][]Row)}
}

func (s *MemoryStore) Append(_ context.Context, tab string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := Row{ID: len(s.tabs[tab]) + 1, Fields: copyFields(fields)}
	s.tabs[tab] = append(s.tabs[tab], row)
	return nil
}

func (s *MemoryStore) Rows(_ context.Context, tab string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]Row, 0, len(s.tabs[tab]))
	for _, row := range s.tabs[tab] {
		rows = append(rows, Row{ID: row.ID, Fields: copyFields(row.Fields)})
	}
	return rows, nil
}

func (s *MemoryStore) Find(_ context.Context, tab, key, value string) (*Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.tabs[tab] {
		if row.Fields[key] == value {
			return &Row{ID: row.ID, Fields: copyFields(row.Fields)}, nil
		}
	}
	return nil, ErrRowNotFound
}

func (s *MemoryStore) Update(_ context.Context, tab string, rowID int, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tabs[tab] {
		if s.tabs[tab][i].ID == rowID {
			s.tabs[tab][i].Fields[key] = value
			return nil
		}
	}
	return ErrRowNotFound
}

func (s *MemoryStore) UpdateIf(_ context.Context, tab string, rowID int, key, expect, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tabs[tab] {
		if s.tabs[tab][i].ID != rowID {
			continue
		}
		if s.tabs[tab][i].Fields[key] != expect {
			return false, nil
		}
		s.tabs[tab][i].Fields[key] = value
		return true, nil
	}
	return false, ErrRowNotFound
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
