// Package ledgertest provides an in-memory ledger.Client for tests.
package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/ledger"
)

// Fake records every call and answers from in-memory state. Errors queued
// with FailNext are returned, one per call, before normal answers resume.
type Fake struct {
	mu sync.Mutex

	Operator string
	Version  ledger.NetworkVersion
	// ReceiptStatus overrides the status of submit receipts when set.
	ReceiptStatus string

	nextID   int
	balances map[string]ledger.Balance
	tokens   map[string][]string
	failures map[string][]error
	calls    map[string]int

	Transfers      []ledger.HbarTransfer
	TokenTransfers []ledger.TokenTransfer
	Messages       map[string][][]byte
}

var _ ledger.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Operator: "0.0.2",
		Version: ledger.NetworkVersion{
			Services: domain.SemanticVersion{Major: 0, Minor: 50, Patch: 1},
			Protobuf: domain.SemanticVersion{Major: 0, Minor: 50, Patch: 0},
		},
		nextID:   1000,
		balances: make(map[string]ledger.Balance),
		tokens:   make(map[string][]string),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
		Messages: make(map[string][][]byte),
	}
}

// FailNext queues err for the next call to method.
func (f *Fake) FailNext(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], errs...)
}

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) SetBalance(accountID string, b ledger.Balance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[accountID] = b
}

func (f *Fake) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if q := f.failures[method]; len(q) > 0 {
		f.failures[method] = q[1:]
		return q[0]
	}
	return nil
}

func (f *Fake) receipt(assigned string) ledger.Receipt {
	status := ledger.StatusSuccess
	if f.ReceiptStatus != "" {
		status = f.ReceiptStatus
	}
	f.nextID++
	return ledger.Receipt{
		Status:        status,
		TransactionID: fmt.Sprintf("%s@%d.000000000", f.Operator, 1700000000+f.nextID),
		ConsensusTime: time.Unix(1700000000+int64(f.nextID), 0).UTC().Format(time.RFC3339Nano),
		AssignedID:    assigned,
	}
}

func (f *Fake) newID() string {
	f.nextID++
	return fmt.Sprintf("0.0.%d", f.nextID)
}

func (f *Fake) OperatorID() string {
	return f.Operator
}

func (f *Fake) GenerateKeyPair() (ledger.KeyPair, error) {
	if err := f.enter("GenerateKeyPair"); err != nil {
		return ledger.KeyPair{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return ledger.KeyPair{
		PrivateKey: fmt.Sprintf("priv-%d", f.nextID),
		PublicKey:  fmt.Sprintf("pub-%d", f.nextID),
	}, nil
}

func (f *Fake) CreateAccountIdentity(_ context.Context, publicKey string, initialTinybars int64) (ledger.Receipt, error) {
	if err := f.enter("CreateAccountIdentity"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	f.balances[id] = ledger.Balance{Tinybars: initialTinybars, Tokens: map[string]uint64{}}
	return f.receipt(id), nil
}

func (f *Fake) SubmitTransfer(_ context.Context, t ledger.HbarTransfer) (ledger.Receipt, error) {
	if err := f.enter("SubmitTransfer"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transfers = append(f.Transfers, t)
	from, to := f.balances[t.SenderID], f.balances[t.RecipientID]
	from.Tinybars -= t.Tinybars
	to.Tinybars += t.Tinybars
	f.balances[t.SenderID], f.balances[t.RecipientID] = from, to
	return f.receipt(""), nil
}

func (f *Fake) SubmitTokenCreate(_ context.Context, spec ledger.TokenSpec) (ledger.Receipt, error) {
	if err := f.enter("SubmitTokenCreate"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipt(f.newID()), nil
}

func (f *Fake) SubmitTokenAssociate(_ context.Context, accountID, tokenID, _ string) (ledger.Receipt, error) {
	if err := f.enter("SubmitTokenAssociate"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[accountID] = append(f.tokens[accountID], tokenID)
	return f.receipt(""), nil
}

func (f *Fake) SubmitTokenTransfer(_ context.Context, t ledger.TokenTransfer) (ledger.Receipt, error) {
	if err := f.enter("SubmitTokenTransfer"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TokenTransfers = append(f.TokenTransfers, t)
	return f.receipt(""), nil
}

func (f *Fake) SubmitTokenBurn(_ context.Context, _ string, _ uint64) (ledger.Receipt, error) {
	if err := f.enter("SubmitTokenBurn"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipt(""), nil
}

func (f *Fake) SubmitTopicCreate(_ context.Context, _ string) (ledger.Receipt, error) {
	if err := f.enter("SubmitTopicCreate"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipt(f.newID()), nil
}

func (f *Fake) SubmitTopicMessage(_ context.Context, topicID string, message []byte) (ledger.Receipt, error) {
	if err := f.enter("SubmitTopicMessage"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages[topicID] = append(f.Messages[topicID], message)
	return f.receipt(""), nil
}

func (f *Fake) SubmitFileCreate(_ context.Context, _ []byte) (ledger.Receipt, error) {
	if err := f.enter("SubmitFileCreate"); err != nil {
		return ledger.Receipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receipt(f.newID()), nil
}

func (f *Fake) QueryAccountInfo(_ context.Context, accountID string) (ledger.AccountInfo, error) {
	if err := f.enter("QueryAccountInfo"); err != nil {
		return ledger.AccountInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return ledger.AccountInfo{
		AccountID: accountID,
		Balance:   fmt.Sprintf("%d", f.balances[accountID].Tinybars),
		TokenIDs:  append([]string(nil), f.tokens[accountID]...),
	}, nil
}

func (f *Fake) QueryBalance(_ context.Context, accountID string) (ledger.Balance, error) {
	if err := f.enter("QueryBalance"); err != nil {
		return ledger.Balance{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.balances[accountID]
	tokens := make(map[string]uint64, len(b.Tokens))
	for k, v := range b.Tokens {
		tokens[k] = v
	}
	return ledger.Balance{Tinybars: b.Tinybars, Tokens: tokens}, nil
}

func (f *Fake) QueryNetworkVersion(context.Context) (ledger.NetworkVersion, error) {
	if err := f.enter("QueryNetworkVersion"); err != nil {
		return ledger.NetworkVersion{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Version, nil
}
