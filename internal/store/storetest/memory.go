// Package storetest provides an in-memory store for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

// Memory mirrors the semantics of store.Store: unique ids and usernames,
// validated transaction records, append-only log entries. Set the Err
// fields to make the matching writes fail.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	records  []domain.TransactionRecord
	logs     []domain.LogEntry

	AccountErr error
	RecordErr  error
	LogErr     error
}

func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]domain.Account)}
}

func (m *Memory) CreateAccount(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AccountErr != nil {
		return m.AccountErr
	}
	if _, ok := m.accounts[a.ID]; ok {
		return fmt.Errorf("%w: account %s", domain.ErrConflict, a.ID)
	}
	for _, existing := range m.accounts {
		if existing.Username == a.Username {
			return fmt.Errorf("%w: username %s", domain.ErrConflict, a.Username)
		}
	}
	a.CreatedAt = time.Now().UTC()
	m.accounts[a.ID] = *a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
	}
	return &a, nil
}

func (m *Memory) GetAccountByUsername(_ context.Context, username string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: username %s", domain.ErrNotFound, username)
}

func (m *Memory) ListAccounts(context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateTransactionRecord(_ context.Context, r *domain.TransactionRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	r.CreatedAt = time.Now().UTC()
	m.records = append(m.records, *r)
	return nil
}

func (m *Memory) ListTransactionRecords(_ context.Context, accountID string) ([]domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TransactionRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if r := m.records[i]; r.SenderID == accountID || r.RecipientID == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) AppendLogEntry(_ context.Context, e domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LogErr != nil {
		return m.LogErr
	}
	m.logs = append(m.logs, e)
	return nil
}

func (m *Memory) ListLogEntries(_ context.Context, actorID string, limit int) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LogEntry
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].ActorID == actorID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

// Records returns every stored transaction record in insertion order.
func (m *Memory) Records() []domain.TransactionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TransactionRecord(nil), m.records...)
}

// Entries returns the log entries written for op.
func (m *Memory) Entries(op domain.OperationType) []domain.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.LogEntry
	for _, e := range m.logs {
		if e.Type == op {
			out = append(out, e)
		}
	}
	return out
}
