package service

import (
	"context"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

// AccountStore is the local identity store keyed by ledger id and username.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// RecordStore holds the immutable mirror of successful transfers.
type RecordStore interface {
	CreateTransactionRecord(ctx context.Context, r *domain.TransactionRecord) error
	ListTransactionRecords(ctx context.Context, accountID string) ([]domain.TransactionRecord, error)
}

// LogReader reads back audit entries for an actor.
type LogReader interface {
	ListLogEntries(ctx context.Context, actorID string, limit int) ([]domain.LogEntry, error)
}

// Hasher turns a credential into its stored form and checks it back.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
