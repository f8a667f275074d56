package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, New(mock)
}

func TestCreateAccount(t *testing.T) {
	mock, s := newMock(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("0.0.100", "pub", pgxmock.AnyArg(), "alice", "a@b.com", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	a := &domain.Account{ID: "0.0.100", PublicKey: "pub", PrivateKey: "priv", Username: "alice", Email: "a@b.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateAccount(context.Background(), a))

	assert.Equal(t, created, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("0.0.100", "", pgxmock.AnyArg(), "alice", "", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.CreateAccount(context.Background(), &domain.Account{ID: "0.0.100", Username: "alice"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount(t *testing.T) {
	mock, s := newMock(t)
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE account_id = \\$1").
		WithArgs("0.0.100").
		WillReturnRows(pgxmock.NewRows([]string{"account_id", "public_key", "private_key", "username", "email", "password_hash", "created_at"}).
			AddRow("0.0.100", "pub", "priv", "alice", "a@b.com", "hash", created))

	a, err := s.GetAccount(context.Background(), "0.0.100")
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Username)
	assert.Equal(t, "priv", a.PrivateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountNotFound(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE account_id").
		WithArgs("0.0.404").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAccount(context.Background(), "0.0.404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetAccountByUsernameNotFound(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE username").
		WithArgs("bob").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAccountByUsername(context.Background(), "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateTransactionRecord(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery("INSERT INTO transaction_records").
		WithArgs("local-1", "0.0.100", "0.0.200", "5", "0.0.100@1.2", "2025-01-01T00:00:00Z").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	r := &domain.TransactionRecord{
		ID: "local-1", SenderID: "0.0.100", RecipientID: "0.0.200",
		Amount: decimal.NewFromInt(5), TxID: "0.0.100@1.2", ConsensusTime: "2025-01-01T00:00:00Z",
	}
	require.NoError(t, s.CreateTransactionRecord(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTransactionRecordRejectsInvalid(t *testing.T) {
	mock, s := newMock(t)

	r := &domain.TransactionRecord{ID: "x", SenderID: "0.0.1", RecipientID: "0.0.1", Amount: decimal.NewFromInt(1)}
	err := s.CreateTransactionRecord(context.Background(), r)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement is sent")
}

func TestListTransactionRecords(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery("FROM transaction_records WHERE sender_id = \\$1 OR recipient_id = \\$1").
		WithArgs("0.0.100").
		WillReturnRows(pgxmock.NewRows([]string{"transaction_id", "sender_id", "recipient_id", "amount", "tx_id", "consensus_time", "created_at"}).
			AddRow("a", "0.0.100", "0.0.200", "123456789012345678901234567890", "tx-a", "t1", time.Now()).
			AddRow("b", "0.0.300", "0.0.100", "7", "tx-b", "t2", time.Now()))

	records, err := s.ListTransactionRecords(context.Background(), "0.0.100")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "123456789012345678901234567890", records[0].Amount.String())
	assert.True(t, records[1].Amount.Equal(decimal.NewFromInt(7)))
}

func TestAppendLogEntry(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec("INSERT INTO log_entries").
		WithArgs("id-1", "token_create", "SUCCESS", "0.0.2", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AppendLogEntry(context.Background(), domain.LogEntry{
		ID: "id-1", Type: domain.OpTokenCreate, Status: domain.LogSuccess, ActorID: "0.0.2", Message: "token 0.0.9 created",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLogEntries(t *testing.T) {
	mock, s := newMock(t)
	now := time.Now()

	mock.ExpectQuery("FROM log_entries WHERE actor_id = \\$1 ORDER BY created_at DESC LIMIT \\$2").
		WithArgs("0.0.100", 2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "type", "status", "actor_id", "message", "created_at"}).
			AddRow("id-2", "hbar_transfer", "FAILED", "0.0.100", "INSUFFICIENT_PAYER_BALANCE", now).
			AddRow("id-1", "account_info", "SUCCESS", "0.0.100", "", now.Add(-time.Minute)))

	entries, err := s.ListLogEntries(context.Background(), "0.0.100", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.OpHbarTransfer, entries[0].Type)
	assert.Equal(t, domain.LogFailed, entries[0].Status)
	assert.Empty(t, entries[1].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS accounts").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
