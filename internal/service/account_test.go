package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/auth"
	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/ledger"
	"github.com/punchamoorthee/hederaops/internal/txlog"
)

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)

	acc, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	assert.NotEmpty(t, acc.ID)
	assert.NotEmpty(t, acc.PublicKey)
	assert.NotEmpty(t, acc.PrivateKey, "private key is surfaced at creation")
	assert.Equal(t, "hashed:s3cret", acc.PasswordHash)
	assert.Equal(t, 1, f.ledger.Calls("GenerateKeyPair"))

	stored, err := f.store.GetAccount(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, "hashed:s3cret", stored.PasswordHash)

	f.flush()
	entries := f.store.Entries(domain.OpAccountCreate)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogSuccess, entries[0].Status)
}

func TestCreateAccountWithPublicKeySkipsGeneration(t *testing.T) {
	f := newFixture(t)

	acc, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "bob", Password: "pw", PublicKey: "302a..."})
	require.NoError(t, err)

	assert.Equal(t, "302a...", acc.PublicKey)
	assert.Empty(t, acc.PrivateKey)
	assert.Zero(t, f.ledger.Calls("GenerateKeyPair"))
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)

	for _, req := range []CreateAccountRequest{
		{Username: "", Password: "pw"},
		{Username: "   ", Password: "pw"},
		{Username: "alice", Password: ""},
	} {
		_, err := f.account.CreateAccount(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	assert.Zero(t, f.ledger.Calls("CreateAccountIdentity"))
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	_, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw2"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, f.ledger.Calls("CreateAccountIdentity"), "no remote account is created for a taken username")
}

func TestCreateAccountLedgerFailure(t *testing.T) {
	f := newFixture(t)
	f.ledger.FailNext("CreateAccountIdentity", ledger.Rejected("account create", errors.New("INSUFFICIENT_PAYER_BALANCE")))

	_, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrRemoteRejection)

	_, lookupErr := f.store.GetAccountByUsername(context.Background(), "alice")
	assert.ErrorIs(t, lookupErr, domain.ErrNotFound)
}

func TestCreateAccountOrphanIsFlagged(t *testing.T) {
	f := newFixture(t)
	f.store.AccountErr = errDBDown

	_, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	require.ErrorIs(t, err, domain.ErrLocalPersistence)
	assert.Equal(t, 1, f.ledger.Calls("CreateAccountIdentity"))

	f.flush()
	entries := f.store.Entries(domain.OpAccountCreate)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogFailed, entries[0].Status)
	assert.Contains(t, entries[0].Message, entries[0].ActorID, "the orphaned ledger id is recorded")
}

func TestCreateAccountHashFailure(t *testing.T) {
	f := newFixture(t)
	f.account = NewAccountService(f.ledger, f.store, f.store, f.store, plainHasher{err: errors.New("boom")}, f.audit, zap.NewNop(), 0)

	_, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	assert.Error(t, err)
	assert.Zero(t, f.ledger.Calls("CreateAccountIdentity"))
}

func TestGetAccountInfo(t *testing.T) {
	f := newFixture(t)
	acc, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	info, err := f.account.GetAccountInfo(context.Background(), acc.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)
	assert.Empty(t, info.PrivateKey)
	assert.True(t, info.Balance.Equal(decimal.NewFromInt(1000)))
	assert.NotNil(t, info.Tokens)

	withKey, err := f.account.GetAccountInfo(context.Background(), acc.ID, true)
	require.NoError(t, err)
	assert.Equal(t, acc.PrivateKey, withKey.PrivateKey)
}

func TestGetAccountInfoNotFoundVsRemoteFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.account.GetAccountInfo(context.Background(), "0.0.404", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.ledger.Calls("QueryAccountInfo"))

	acc, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	f.ledger.FailNext("QueryAccountInfo", ledger.Transient("account info", errors.New("UNAVAILABLE")))

	_, err = f.account.GetAccountInfo(context.Background(), acc.ID, false)
	assert.ErrorIs(t, err, domain.ErrTransientRemote)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestGetAccountInfoAsRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	acc, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = f.account.GetAccountInfoAs(context.Background(), acc.ID, domain.Caller{ID: "0.0.400"}, true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	info, err := f.account.GetAccountInfoAs(context.Background(), acc.ID, domain.Caller{ID: acc.ID}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, info.PrivateKey)
}

func TestListAccountsOmitsPrivateKeys(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"alice", "bob"} {
		_, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: name, Password: "pw"})
		require.NoError(t, err)
	}

	accounts, err := f.account.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, a := range accounts {
		assert.Empty(t, a.PrivateKey)
	}

	one, err := f.account.GetAccountByID(context.Background(), accounts[0].ID)
	require.NoError(t, err)
	assert.Empty(t, one.PrivateKey)
}

func TestBalanceAccessControl(t *testing.T) {
	f := newFixture(t)
	f.ledger.SetBalance("0.0.300", ledger.Balance{Tinybars: 250_000_000, Tokens: map[string]uint64{"0.0.77": 10}})

	_, err := f.account.GetAccountBalanceWithAccessControl(context.Background(), "0.0.300", domain.Caller{ID: "0.0.400", Roles: []string{}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.ledger.Calls("QueryBalance"), "denied before any ledger call")

	b, err := f.account.GetAccountBalanceWithAccessControl(context.Background(), "0.0.300", domain.Caller{ID: "0.0.300"})
	require.NoError(t, err)
	assert.Equal(t, "2.5", b.Hbar.String())
	assert.Nil(t, b.Tokens)

	full, err := f.account.GetAccountBalancesFull(context.Background(), "0.0.300", domain.Caller{ID: "0.0.1", Roles: []string{domain.RoleAdmin}})
	require.NoError(t, err)
	assert.Equal(t, int64(250_000_000), full.Tinybars)
	assert.Equal(t, uint64(10), full.Tokens["0.0.77"])
}

func TestListTransactionsGated(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.SendHbar(context.Background(), HbarTransferRequest{SenderID: "0.0.100", SenderKey: "k", RecipientID: "0.0.200", Amount: "5"})
	require.NoError(t, err)

	_, err = f.account.ListTransactions(context.Background(), "0.0.100", domain.Caller{ID: "0.0.200"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	records, err := f.account.ListTransactions(context.Background(), "0.0.200", domain.Caller{ID: "0.0.200"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0.0.100", records[0].SenderID)

	none, err := f.account.ListTransactions(context.Background(), "0.0.999", domain.Caller{ID: "0.0.999"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAuditFailureDoesNotAffectAccountCreation(t *testing.T) {
	f := newFixture(t)
	f.store.LogErr = errDBDown
	f.audit = txlog.NewWriter(f.store, zap.NewNop(), 0)
	f.account = NewAccountService(f.ledger, f.store, f.store, f.store, plainHasher{}, f.audit, zap.NewNop(), 0)

	acc, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	f.flush()
}

func TestListActivity(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.SendHbar(context.Background(), HbarTransferRequest{SenderID: "0.0.100", SenderKey: "k", RecipientID: "0.0.200", Amount: "5"})
	require.NoError(t, err)
	f.flush()
	_, err = f.orch.SendHbar(context.Background(), HbarTransferRequest{SenderID: "0.0.100", SenderKey: "k", RecipientID: "0.0.200", Amount: "0"})
	require.Error(t, err)
	f.flush()

	_, err = f.account.ListActivity(context.Background(), "0.0.100", domain.Caller{ID: "0.0.200"}, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	entries, err := f.account.ListActivity(context.Background(), "0.0.100", domain.Caller{ID: "0.0.100"}, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.LogFailed, entries[0].Status, "newest first")
	assert.Equal(t, domain.LogSuccess, entries[1].Status)

	one, err := f.account.ListActivity(context.Background(), "0.0.100", domain.Caller{ID: "0.0.100"}, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestVerifyCredentials(t *testing.T) {
	f := newFixture(t)
	created, err := f.account.CreateAccount(context.Background(), CreateAccountRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	acc, err := f.account.VerifyCredentials(context.Background(), " alice ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)
	assert.Empty(t, acc.PrivateKey)

	_, err = f.account.VerifyCredentials(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.account.VerifyCredentials(context.Background(), "bob", "s3cret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.account.VerifyCredentials(context.Background(), "", "s3cret")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
