// Package memory provides in-memory store implementations used by tests and
// by deployments that do not need durable persistence.
package memory

import (
	"context"
	"sync"

	"github.com/stevie86/portugal-hostel-booking/internal/domain"
)

// TransactionLogStore is an append-only in-memory audit log.
type TransactionLogStore struct {
	mu      sync.RWMutex
	entries []*domain.TransactionLog
}

func NewTransactionLogStore() *TransactionLogStore {
	return &TransactionLogStore{}
}

func (s *TransactionLogStore) Append(_ context.Context, log *domain.TransactionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *log
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *TransactionLogStore) FindByTransactionID(_ context.Context, transactionID string) ([]*domain.TransactionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.TransactionLog
	for _, entry := range s.entries {
		if entry.TransactionID == transactionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// All returns every entry in append order.
func (s *TransactionLogStore) All() []*domain.TransactionLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.TransactionLog, len(s.entries))
	copy(out, s.entries)
	return out
}
