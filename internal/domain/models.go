package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is the merged view of a ledger account and its local identity.
// ID is assigned by the ledger and never changes once persisted.
type Account struct {
	ID           string    `json:"account_id"`
	PublicKey    string    `json:"public_key"`
	PrivateKey   string    `json:"private_key,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Redacted returns a copy without the private key.
func (a Account) Redacted() Account {
	a.PrivateKey = ""
	return a
}

// TransactionRecord is the immutable local mirror of a successful transfer.
// Amount is in the smallest ledger unit and is always strictly positive.
type TransactionRecord struct {
	ID            string          `json:"transaction_id"`
	SenderID      string          `json:"sender_id"`
	RecipientID   string          `json:"recipient_id"`
	Amount        decimal.Decimal `json:"amount"`
	TxID          string          `json:"tx_id"`
	ConsensusTime string          `json:"consensus_time"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Validate enforces the record invariants before it is persisted.
func (r TransactionRecord) Validate() error {
	if r.SenderID == "" || r.RecipientID == "" {
		return fmt.Errorf("%w: sender and recipient are required", ErrValidation)
	}
	if r.SenderID == r.RecipientID {
		return fmt.Errorf("%w: sender and recipient must differ", ErrValidation)
	}
	if !r.Amount.IsPositive() || !r.Amount.IsInteger() {
		return fmt.Errorf("%w: amount must be a positive integer", ErrValidation)
	}
	return nil
}

// OperationType enumerates the operations recorded in the transaction log.
type OperationType string

const (
	OpAccountCreate    OperationType = "account_create"
	OpAccountInfo      OperationType = "account_info"
	OpHbarTransfer     OperationType = "hbar_transfer"
	OpTokenCreate      OperationType = "token_create"
	OpTokenAssociate   OperationType = "token_associate"
	OpTokenTransfer    OperationType = "token_transfer"
	OpTokenBurn        OperationType = "token_burn"
	OpTopicCreate      OperationType = "topic_create"
	OpTopicMessageSend OperationType = "topic_message_send"
	OpFileCreate       OperationType = "file_create"
)

type LogStatus string

const (
	LogSuccess LogStatus = "SUCCESS"
	LogFailed  LogStatus = "FAILED"
)

// LogEntry is an append-only audit line. Writing it is best-effort.
type LogEntry struct {
	ID        string        `json:"id"`
	Type      OperationType `json:"type"`
	Status    LogStatus     `json:"status"`
	ActorID   string        `json:"actor_id"`
	Message   string        `json:"message,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// SemanticVersion is a major.minor.patch triple reported by the network.
type SemanticVersion struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
	Patch uint32 `json:"patch"`
}

func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

const (
	NetworkStatusOK          = "OK"
	NetworkStatusUnavailable = "UNAVAILABLE"
)

// NetworkStatusSnapshot is replaced wholesale on every successful refresh.
type NetworkStatusSnapshot struct {
	Status          string          `json:"status"`
	CapturedAt      time.Time       `json:"timestamp"`
	ServicesVersion SemanticVersion `json:"services_version"`
	ProtobufVersion SemanticVersion `json:"protobuf_version"`
}

// Available reports whether the snapshot came from a successful refresh.
func (s NetworkStatusSnapshot) Available() bool {
	return s.Status == NetworkStatusOK
}

// UnavailableSnapshot is served before the first successful refresh.
var UnavailableSnapshot = NetworkStatusSnapshot{Status: NetworkStatusUnavailable}
