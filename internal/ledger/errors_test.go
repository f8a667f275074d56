package ledger

import (
	"context"
	"errors"
	"net"
	"testing"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassifyGeneric(t *testing.T) {
	assert.True(t, domain.IsTransient(classifyGeneric("op", context.DeadlineExceeded)))
	assert.True(t, domain.IsTransient(classifyGeneric("op", timeoutErr{})))
	assert.True(t, domain.IsTransient(classifyGeneric("balance", context.Canceled)))
	assert.ErrorIs(t, classifyGeneric("balance", context.Canceled), context.Canceled)

	rejected := classifyGeneric("op", errors.New("INVALID_SIGNATURE"))
	assert.ErrorIs(t, rejected, domain.ErrRemoteRejection)
	assert.False(t, domain.IsTransient(rejected))

	already := Transient("op", errors.New("x"))
	assert.Same(t, already, classifyGeneric("other", already))
}

func TestClassifyHederaStatuses(t *testing.T) {
	txID := hedera.TransactionIDGenerate(hedera.AccountID{Account: 2})

	busy := hedera.ErrHederaPreCheckStatus{TxID: txID, Status: hedera.StatusBusy}
	assert.True(t, domain.IsTransient(classify("transfer", busy)))

	insufficient := hedera.ErrHederaReceiptStatus{TxID: txID, Status: hedera.StatusInsufficientPayerBalance}
	err := classify("transfer", insufficient)
	assert.ErrorIs(t, err, domain.ErrRemoteRejection)
	assert.Contains(t, err.Error(), "transfer")
}

func TestRejectedStatus(t *testing.T) {
	err := RejectedStatus("topic create", "INVALID_TOPIC_ID")
	assert.ErrorIs(t, err, domain.ErrRemoteRejection)
	assert.Contains(t, err.Error(), "INVALID_TOPIC_ID")
}

func TestReceiptSucceeded(t *testing.T) {
	assert.True(t, Receipt{Status: StatusSuccess}.Succeeded())
	assert.False(t, Receipt{Status: "INSUFFICIENT_ACCOUNT_BALANCE"}.Succeeded())
}
