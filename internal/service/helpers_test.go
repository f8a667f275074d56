package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/ledger/ledgertest"
	"github.com/punchamoorthee/hederaops/internal/retry"
	"github.com/punchamoorthee/hederaops/internal/store/storetest"
	"github.com/punchamoorthee/hederaops/internal/txlog"
)

type plainHasher struct{ err error }

func (h plainHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

func (plainHasher) Compare(hash, password string) bool {
	return hash == "hashed:"+password
}

type fixture struct {
	ledger  *ledgertest.Fake
	store   *storetest.Memory
	audit   *txlog.Writer
	sleeps  []time.Duration
	orch    *Orchestrator
	account *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ledger: ledgertest.New(), store: storetest.NewMemory()}
	f.audit = txlog.NewWriter(f.store, zap.NewNop(), time.Second)

	retrier := retry.New(retry.Policy{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond, Factor: 2}).
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return ctx.Err()
		})

	f.orch = NewOrchestrator(f.ledger, f.store, retrier, f.audit, zap.NewNop())
	f.account = NewAccountService(f.ledger, f.store, f.store, f.store, plainHasher{}, f.audit, zap.NewNop(), 1000)
	return f
}

// flush waits for pending audit writes.
func (f *fixture) flush() {
	f.audit.Wait()
}

var errDBDown = errors.New("connection refused")
