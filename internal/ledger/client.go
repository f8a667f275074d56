// Package ledger is the boundary to the external consensus network.
//
// Every call may fail with an error wrapping domain.ErrTransientRemote
// (network, timeout, busy node) or domain.ErrRemoteRejection (the ledger
// refused the operation). Implementations must be safe for concurrent use.
package ledger

import (
	"context"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

// StatusSuccess is the receipt status of a finalised, accepted operation.
const StatusSuccess = "SUCCESS"

// Receipt describes the outcome of a submitted operation.
type Receipt struct {
	Status        string
	TransactionID string
	// ConsensusTime is opaque, as reported by the network.
	ConsensusTime string
	// AssignedID is the new account, token, topic or file id, when any.
	AssignedID string
}

func (r Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

type HbarTransfer struct {
	SenderID    string
	SenderKey   string
	RecipientID string
	Tinybars    int64
}

type TokenSpec struct {
	Name          string
	Symbol        string
	Decimals      uint
	InitialSupply uint64
}

type TokenTransfer struct {
	TokenID     string
	SenderID    string
	RecipientID string
	Amount      int64
}

type AccountInfo struct {
	AccountID string
	PublicKey string
	// Balance is the account balance as rendered by the network.
	Balance  string
	TokenIDs []string
}

// Balance carries the HBAR balance in tinybars and per-token amounts.
type Balance struct {
	Tinybars int64
	Tokens   map[string]uint64
}

type NetworkVersion struct {
	Services domain.SemanticVersion
	Protobuf domain.SemanticVersion
}

// Client is the call contract of the ledger network.
type Client interface {
	OperatorID() string
	GenerateKeyPair() (KeyPair, error)

	CreateAccountIdentity(ctx context.Context, publicKey string, initialTinybars int64) (Receipt, error)
	SubmitTransfer(ctx context.Context, t HbarTransfer) (Receipt, error)
	SubmitTokenCreate(ctx context.Context, spec TokenSpec) (Receipt, error)
	SubmitTokenAssociate(ctx context.Context, accountID, tokenID, accountKey string) (Receipt, error)
	SubmitTokenTransfer(ctx context.Context, t TokenTransfer) (Receipt, error)
	SubmitTokenBurn(ctx context.Context, tokenID string, amount uint64) (Receipt, error)
	SubmitTopicCreate(ctx context.Context, memo string) (Receipt, error)
	SubmitTopicMessage(ctx context.Context, topicID string, message []byte) (Receipt, error)
	SubmitFileCreate(ctx context.Context, contents []byte) (Receipt, error)

	QueryAccountInfo(ctx context.Context, accountID string) (AccountInfo, error)
	QueryBalance(ctx context.Context, accountID string) (Balance, error)
	QueryNetworkVersion(ctx context.Context) (NetworkVersion, error)
}
