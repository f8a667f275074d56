package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/ledger"
	"github.com/punchamoorthee/hederaops/internal/retry"
	"github.com/punchamoorthee/hederaops/internal/txlog"
)

const defaultTopicMemo = "Hedera Topic"

type HbarTransferRequest struct {
	SenderID    string
	SenderKey   string
	RecipientID string
	// Amount is a positive integer number of tinybars.
	Amount string
}

type HbarTransferResult struct {
	Status          string `json:"status"`
	TransactionID   string `json:"transaction_id"`
	SenderID        string `json:"sender_id"`
	ReceiverID      string `json:"receiver_id"`
	ConsensusTime   string `json:"consensus_time"`
	Amount          int64  `json:"amount"`
	FormattedAmount string `json:"formatted_amount"`
	RecordID        string `json:"record_id"`
}

// Submission is the interpreted receipt of a submitted operation.
type Submission struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	ConsensusTime string `json:"consensus_time"`
	AssignedID    string `json:"assigned_id,omitempty"`
}

func submissionFrom(r ledger.Receipt) *Submission {
	return &Submission{
		Status:        r.Status,
		TransactionID: r.TransactionID,
		ConsensusTime: r.ConsensusTime,
		AssignedID:    r.AssignedID,
	}
}

type TokenCreateRequest struct {
	Name          string
	Symbol        string
	Decimals      uint
	InitialSupply int64
}

type TokenTransferRequest struct {
	TokenID     string
	SenderID    string
	RecipientID string
	Amount      int64
}

// Orchestrator submits value-moving and provisioning operations to the
// ledger, interprets receipts and mirrors successful transfers locally.
// Submissions are never retried; burns, file creation and status reads go
// through the retrier and are retried on transient failures only.
type Orchestrator struct {
	tracker
	ledger  ledger.Client
	records RecordStore
	retrier *retry.Retrier
}

func NewOrchestrator(client ledger.Client, records RecordStore, retrier *retry.Retrier, audit *txlog.Writer, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		tracker: tracker{audit: audit, log: log.Named("orchestrator")},
		ledger:  client,
		records: records,
		retrier: retrier,
	}
}

// transientOnly is the retrier policy restricted to transient failures.
func (o *Orchestrator) transientOnly() retry.Policy {
	return o.retrier.Policy().WithRetryable(domain.IsTransient)
}

// submit performs one ledger call and turns a non-success receipt into a
// rejection. Every failure is reported before it is returned.
func (o *Orchestrator) submit(ctx context.Context, op domain.OperationType, actor string, call func(ctx context.Context) (ledger.Receipt, error)) (ledger.Receipt, error) {
	receipt, err := timed(op, func() (ledger.Receipt, error) {
		return call(ctx)
	})
	if err == nil && !receipt.Succeeded() {
		err = ledger.RejectedStatus(string(op), receipt.Status)
	}
	if err != nil {
		o.fail(ctx, op, actor, err)
		return ledger.Receipt{}, err
	}
	return receipt, nil
}

// retried is submit with the call wrapped in the retrier.
func (o *Orchestrator) retried(ctx context.Context, op domain.OperationType, actor string, call func(ctx context.Context) (ledger.Receipt, error)) (ledger.Receipt, error) {
	return o.submit(ctx, op, actor, func(ctx context.Context) (ledger.Receipt, error) {
		return retry.DoWith(ctx, o.retrier, o.transientOnly(), func(ctx context.Context) (ledger.Receipt, error) {
			r, err := call(ctx)
			if err == nil && !r.Succeeded() {
				return r, ledger.RejectedStatus(string(op), r.Status)
			}
			return r, err
		})
	})
}

func (o *Orchestrator) invalid(ctx context.Context, op domain.OperationType, actor, format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
	o.fail(ctx, op, actor, err)
	return err
}

// SendHbar moves tinybars from sender to recipient, signed with the sender's
// key. A TransactionRecord is written only after the receipt reports
// success. The transfer is not retried.
func (o *Orchestrator) SendHbar(ctx context.Context, req HbarTransferRequest) (*HbarTransferResult, error) {
	const op = domain.OpHbarTransfer

	if req.SenderID == "" || req.RecipientID == "" || req.SenderKey == "" {
		return nil, o.invalid(ctx, op, req.SenderID, "sender id, sender key and recipient id are required")
	}
	if req.SenderID == req.RecipientID {
		return nil, o.invalid(ctx, op, req.SenderID, "sender and recipient must differ")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		o.fail(ctx, op, req.SenderID, err)
		return nil, err
	}
	tinybars := amount.IntPart()

	receipt, err := o.submit(ctx, op, req.SenderID, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitTransfer(ctx, ledger.HbarTransfer{
			SenderID:    req.SenderID,
			SenderKey:   req.SenderKey,
			RecipientID: req.RecipientID,
			Tinybars:    tinybars,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("transfer from %s to %s: %w", req.SenderID, req.RecipientID, err)
	}

	record := &domain.TransactionRecord{
		ID:            uuid.NewString(),
		SenderID:      req.SenderID,
		RecipientID:   req.RecipientID,
		Amount:        amount,
		TxID:          receipt.TransactionID,
		ConsensusTime: receipt.ConsensusTime,
	}
	if err := o.records.CreateTransactionRecord(ctx, record); err != nil {
		err = fmt.Errorf("%w: transfer %s succeeded on the ledger but was not recorded: %v", domain.ErrLocalPersistence, receipt.TransactionID, err)
		o.log.Error("unrecorded ledger transfer",
			zap.String("tx_id", receipt.TransactionID),
			zap.String("sender", req.SenderID),
			zap.String("recipient", req.RecipientID),
			zap.Int64("tinybars", tinybars),
			zap.Error(err))
		o.fail(ctx, op, req.SenderID, err)
		return nil, err
	}

	formatted := formatHbar(tinybars)
	o.succeed(ctx, op, req.SenderID, fmt.Sprintf("sent %s to %s in %s", formatted, req.RecipientID, receipt.TransactionID))
	return &HbarTransferResult{
		Status:          receipt.Status,
		TransactionID:   receipt.TransactionID,
		SenderID:        req.SenderID,
		ReceiverID:      req.RecipientID,
		ConsensusTime:   receipt.ConsensusTime,
		Amount:          tinybars,
		FormattedAmount: formatted,
		RecordID:        record.ID,
	}, nil
}

// SendToken moves fungible token units between two associated accounts.
func (o *Orchestrator) SendToken(ctx context.Context, req TokenTransferRequest) (*Submission, error) {
	const op = domain.OpTokenTransfer

	if req.TokenID == "" || req.SenderID == "" || req.RecipientID == "" {
		return nil, o.invalid(ctx, op, req.SenderID, "token id, sender id and recipient id are required")
	}
	if req.Amount <= 0 {
		return nil, o.invalid(ctx, op, req.SenderID, "amount must be positive")
	}
	if req.SenderID == req.RecipientID {
		return nil, o.invalid(ctx, op, req.SenderID, "sender and recipient must differ")
	}

	receipt, err := o.submit(ctx, op, req.SenderID, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitTokenTransfer(ctx, ledger.TokenTransfer{
			TokenID:     req.TokenID,
			SenderID:    req.SenderID,
			RecipientID: req.RecipientID,
			Amount:      req.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	o.succeed(ctx, op, req.SenderID, fmt.Sprintf("sent %d of %s to %s", req.Amount, req.TokenID, req.RecipientID))
	return submissionFrom(receipt), nil
}

// CreateToken creates a fungible token whose treasury is the operator.
func (o *Orchestrator) CreateToken(ctx context.Context, req TokenCreateRequest) (*Submission, error) {
	const op = domain.OpTokenCreate
	actor := o.ledger.OperatorID()

	req.Name, req.Symbol = strings.TrimSpace(req.Name), strings.TrimSpace(req.Symbol)
	if req.Name == "" || req.Symbol == "" {
		return nil, o.invalid(ctx, op, actor, "token name and symbol are required")
	}
	if req.InitialSupply < 0 {
		return nil, o.invalid(ctx, op, actor, "initial supply cannot be negative")
	}

	receipt, err := o.submit(ctx, op, actor, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitTokenCreate(ctx, ledger.TokenSpec{
			Name:          req.Name,
			Symbol:        req.Symbol,
			Decimals:      req.Decimals,
			InitialSupply: uint64(req.InitialSupply),
		})
	})
	if err != nil {
		return nil, err
	}
	o.succeed(ctx, op, actor, fmt.Sprintf("token %s (%s) created as %s", req.Name, req.Symbol, receipt.AssignedID))
	return submissionFrom(receipt), nil
}

// AssociateToken lets accountID hold tokenID. The account signs.
func (o *Orchestrator) AssociateToken(ctx context.Context, accountID, tokenID, accountKey string) (*Submission, error) {
	const op = domain.OpTokenAssociate

	if accountID == "" || tokenID == "" || accountKey == "" {
		return nil, o.invalid(ctx, op, accountID, "account id, token id and account key are required")
	}

	receipt, err := o.submit(ctx, op, accountID, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitTokenAssociate(ctx, accountID, tokenID, accountKey)
	})
	if err != nil {
		return nil, err
	}
	o.succeed(ctx, op, accountID, "associated with "+tokenID)
	return submissionFrom(receipt), nil
}

// BurnToken removes units from the treasury supply.
func (o *Orchestrator) BurnToken(ctx context.Context, tokenID string, amount int64) (*Submission, error) {
	const op = domain.OpTokenBurn
	actor := o.ledger.OperatorID()

	if tokenID == "" {
		return nil, o.invalid(ctx, op, actor, "token id is required")
	}
	if amount <= 0 {
		return nil, o.invalid(ctx, op, actor, "amount must be positive")
	}

	receipt, err := o.retried(ctx, op, actor, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitTokenBurn(ctx, tokenID, uint64(amount))
	})
	if err != nil {
		return nil, err
	}
	o.succeed(ctx, op, actor, fmt.Sprintf("burned %d of %s", amount, tokenID))
	return submissionFrom(receipt), nil
}
