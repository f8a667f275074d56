package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

//go:embed schema.sql
var schema string

// DBTX is the subset of pgxpool.Pool the store relies on.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the local mirror: accounts, transaction records and log entries.
// It only inserts and reads; nothing is updated or deleted.
type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

// Open connects a pgx pool and verifies it with a ping.
func Open(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates missing tables. It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// CreateAccount inserts the local identity of a ledger account and fills
// CreatedAt from the database.
func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	var privateKey *string
	if a.PrivateKey != "" {
		privateKey = &a.PrivateKey
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO accounts (account_id, public_key, private_key, username, email, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		a.ID, a.PublicKey, privateKey, a.Username, a.Email, a.PasswordHash,
	).Scan(&a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %s or username %s", domain.ErrConflict, a.ID, a.Username)
		}
		return fmt.Errorf("account insert failed: %w", err)
	}
	return nil
}

const accountColumns = "account_id, public_key, COALESCE(private_key, ''), username, email, password_hash, created_at"

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.PublicKey, &a.PrivateKey, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccount retrieves an account by its ledger id.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE account_id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("account query failed: %w", err)
	}
	return a, nil
}

// GetAccountByUsername retrieves an account by its unique username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	a, err := scanAccount(s.db.QueryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE username = $1", username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: username %s", domain.ErrNotFound, username)
		}
		return nil, fmt.Errorf("account query failed: %w", err)
	}
	return a, nil
}

// ListAccounts returns every account, oldest first.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.Query(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("account list failed: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("account scan failed: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// CreateTransactionRecord inserts an immutable transfer record.
func (s *Store) CreateTransactionRecord(ctx context.Context, r *domain.TransactionRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO transaction_records (transaction_id, sender_id, recipient_id, amount, tx_id, consensus_time)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6) RETURNING created_at`,
		r.ID, r.SenderID, r.RecipientID, r.Amount.String(), r.TxID, r.ConsensusTime,
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("transaction record insert failed: %w", err)
	}
	return nil
}

// ListTransactionRecords returns records where the account is either side,
// newest first.
func (s *Store) ListTransactionRecords(ctx context.Context, accountID string) ([]domain.TransactionRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT transaction_id, sender_id, recipient_id, amount::text, tx_id, consensus_time, created_at
		 FROM transaction_records WHERE sender_id = $1 OR recipient_id = $1 ORDER BY created_at DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("transaction record query failed: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var (
			r      domain.TransactionRecord
			amount string
		)
		if err := rows.Scan(&r.ID, &r.SenderID, &r.RecipientID, &amount, &r.TxID, &r.ConsensusTime, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("transaction record scan failed: %w", err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction record amount %q: %w", amount, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AppendLogEntry inserts a log entry.
func (s *Store) AppendLogEntry(ctx context.Context, e domain.LogEntry) error {
	var message *string
	if e.Message != "" {
		message = &e.Message
	}
	_, err := s.db.Exec(ctx,
		"INSERT INTO log_entries (id, type, status, actor_id, message) VALUES ($1, $2, $3, $4, $5)",
		e.ID, string(e.Type), string(e.Status), e.ActorID, message)
	if err != nil {
		return fmt.Errorf("log entry insert failed: %w", err)
	}
	return nil
}

// ListLogEntries returns the most recent entries for an actor.
func (s *Store) ListLogEntries(ctx context.Context, actorID string, limit int) ([]domain.LogEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, status, actor_id, COALESCE(message, ''), created_at
		 FROM log_entries WHERE actor_id = $1 ORDER BY created_at DESC LIMIT $2`,
		actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("log entry query failed: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var (
			e          domain.LogEntry
			typ, state string
		)
		if err := rows.Scan(&e.ID, &typ, &state, &e.ActorID, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("log entry scan failed: %w", err)
		}
		e.Type, e.Status = domain.OperationType(typ), domain.LogStatus(state)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
