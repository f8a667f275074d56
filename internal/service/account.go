package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/auth"
	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/ledger"
	"github.com/punchamoorthee/hederaops/internal/txlog"
)

type CreateAccountRequest struct {
	Username  string
	Password  string
	Email     string
	PublicKey string
}

// AccountInfo is the reconciled view: local identity plus live ledger state.
type AccountInfo struct {
	domain.Account
	// Balance is in tinybars.
	Balance decimal.Decimal `json:"balance"`
	Tokens  []string        `json:"tokens"`
}

// Balance is the live balance of an account. Tokens is only filled by the
// full balance reads.
type Balance struct {
	AccountID string            `json:"account_id"`
	Tinybars  int64             `json:"tinybars"`
	Hbar      decimal.Decimal   `json:"hbar"`
	Tokens    map[string]uint64 `json:"tokens,omitempty"`
}

// AccountService reconciles ledger accounts with their local identities.
type AccountService struct {
	tracker
	ledger         ledger.Client
	accounts       AccountStore
	records        RecordStore
	hasher         Hasher
	logs           LogReader
	initialBalance int64
}

func NewAccountService(client ledger.Client, accounts AccountStore, records RecordStore, logs LogReader, hasher Hasher, audit *txlog.Writer, log *zap.Logger, initialTinybars int64) *AccountService {
	return &AccountService{
		tracker:        tracker{audit: audit, log: log.Named("accounts")},
		ledger:         client,
		accounts:       accounts,
		records:        records,
		hasher:         hasher,
		logs:           logs,
		initialBalance: initialTinybars,
	}
}

// CreateAccount creates the ledger account and stores its local identity.
// The returned account carries the private key; it is never returned again
// by the list or lookup reads.
//
// If the ledger accepts the account but the local insert fails, the remote
// account is orphaned: the error wraps domain.ErrLocalPersistence and the
// orphan id is written to the audit log.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	_, err := s.accounts.GetAccountByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: username %s", domain.ErrConflict, req.Username)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("username lookup: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	keys := ledger.KeyPair{PublicKey: req.PublicKey}
	if keys.PublicKey == "" {
		if keys, err = s.ledger.GenerateKeyPair(); err != nil {
			return nil, fmt.Errorf("generate key pair: %w", err)
		}
	}

	receipt, err := timed(domain.OpAccountCreate, func() (ledger.Receipt, error) {
		return s.ledger.CreateAccountIdentity(ctx, keys.PublicKey, s.initialBalance)
	})
	if err == nil && !receipt.Succeeded() {
		err = ledger.RejectedStatus("account create", receipt.Status)
	}
	if err != nil {
		s.fail(ctx, domain.OpAccountCreate, req.Username, err)
		return nil, err
	}

	account := &domain.Account{
		ID:           receipt.AssignedID,
		PublicKey:    keys.PublicKey,
		PrivateKey:   keys.PrivateKey,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		err = fmt.Errorf("%w: ledger account %s was created but not stored: %v", domain.ErrLocalPersistence, account.ID, err)
		s.log.Error("orphaned ledger account",
			zap.String("account_id", account.ID),
			zap.String("username", account.Username),
			zap.Error(err))
		s.fail(ctx, domain.OpAccountCreate, account.ID, err)
		return nil, err
	}

	s.succeed(ctx, domain.OpAccountCreate, account.ID, "account created for "+account.Username)
	return account, nil
}

// GetAccountInfo merges the local record with the live ledger view. A
// missing local record yields domain.ErrNotFound; ledger failures keep their
// remote classification.
func (s *AccountService) GetAccountInfo(ctx context.Context, id string, includePrivateKey bool) (*AccountInfo, error) {
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	info, err := timed(domain.OpAccountInfo, func() (ledger.AccountInfo, error) {
		return s.ledger.QueryAccountInfo(ctx, id)
	})
	if err != nil {
		err = fmt.Errorf("account info %s: %w", id, err)
		s.fail(ctx, domain.OpAccountInfo, id, err)
		return nil, err
	}

	balance, err := coerceBalance(info.Balance)
	if err != nil {
		err = fmt.Errorf("%w: account info %s: %v", domain.ErrRemoteRejection, id, err)
		s.fail(ctx, domain.OpAccountInfo, id, err)
		return nil, err
	}

	view := &AccountInfo{Account: *account, Balance: balance, Tokens: info.TokenIDs}
	if !includePrivateKey {
		view.Account = view.Account.Redacted()
	}
	if view.Tokens == nil {
		view.Tokens = []string{}
	}
	s.succeed(ctx, domain.OpAccountInfo, id, "")
	return view, nil
}

// GetAccountInfoAs is GetAccountInfo behind the access gate. Only the owner
// or an admin can ask for the private key.
func (s *AccountService) GetAccountInfoAs(ctx context.Context, id string, caller domain.Caller, includePrivateKey bool) (*AccountInfo, error) {
	if err := auth.Authorize(id, caller); err != nil {
		return nil, err
	}
	return s.GetAccountInfo(ctx, id, includePrivateKey)
}

// VerifyCredentials returns the redacted account owning username when
// password matches. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *AccountService) VerifyCredentials(ctx context.Context, username, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Compare(account.PasswordHash, password) {
		s.log.Info("password mismatch", zap.String("account", account.ID))
		return nil, auth.ErrInvalidCredentials
	}
	redacted := account.Redacted()
	return &redacted, nil
}

// GetAccountByID reads the local identity only; the ledger is not queried.
func (s *AccountService) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	redacted := account.Redacted()
	return &redacted, nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Redacted())
	}
	return out, nil
}

// GetAccountBalance reads the live balance without any access check.
func (s *AccountService) GetAccountBalance(ctx context.Context, id string) (*Balance, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}
	b, err := timed(domain.OpAccountInfo, func() (ledger.Balance, error) {
		return s.ledger.QueryBalance(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("balance %s: %w", id, err)
	}
	tokens := b.Tokens
	if tokens == nil {
		tokens = map[string]uint64{}
	}
	return &Balance{AccountID: id, Tinybars: b.Tinybars, Hbar: tinybarsToHbar(b.Tinybars), Tokens: tokens}, nil
}

// GetAccountBalanceWithAccessControl returns the HBAR balance to the owner or
// an admin.
func (s *AccountService) GetAccountBalanceWithAccessControl(ctx context.Context, id string, caller domain.Caller) (*Balance, error) {
	if err := auth.Authorize(id, caller); err != nil {
		return nil, err
	}
	b, err := s.GetAccountBalance(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Tokens = nil
	return b, nil
}

// GetAccountBalancesFull returns HBAR and every token balance.
func (s *AccountService) GetAccountBalancesFull(ctx context.Context, id string, caller domain.Caller) (*Balance, error) {
	if err := auth.Authorize(id, caller); err != nil {
		return nil, err
	}
	return s.GetAccountBalance(ctx, id)
}

// ListTransactions returns the transfers the account took part in.
func (s *AccountService) ListTransactions(ctx context.Context, id string, caller domain.Caller) ([]domain.TransactionRecord, error) {
	if err := auth.Authorize(id, caller); err != nil {
		return nil, err
	}
	records, err := s.records.ListTransactionRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.TransactionRecord{}
	}
	return records, nil
}

const maxActivity = 200

// ListActivity returns the latest audit entries where the account was the
// actor, newest first.
func (s *AccountService) ListActivity(ctx context.Context, id string, caller domain.Caller, limit int) ([]domain.LogEntry, error) {
	if err := auth.Authorize(id, caller); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxActivity {
		limit = maxActivity
	}
	entries, err := s.logs.ListLogEntries(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	return entries, nil
}
