package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

// HederaConfig holds the operator identity used to pay for and sign
// operator-owned transactions.
type HederaConfig struct {
	Network     string
	OperatorID  string
	OperatorKey string
}

// HederaClient implements Client on top of the Hedera Go SDK. The SDK client
// pools its own gRPC channels and is safe for concurrent use.
type HederaClient struct {
	client      *hedera.Client
	operatorID  hedera.AccountID
	operatorKey hedera.PrivateKey
	log         *zap.Logger
}

var _ Client = (*HederaClient)(nil)

func NewHederaClient(cfg HederaConfig, log *zap.Logger) (*HederaClient, error) {
	if cfg.OperatorID == "" || cfg.OperatorKey == "" {
		return nil, errors.New("hedera operator id and key are required")
	}
	operatorID, err := hedera.AccountIDFromString(cfg.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("parse operator id: %w", err)
	}
	operatorKey, err := hedera.PrivateKeyFromString(cfg.OperatorKey)
	if err != nil {
		return nil, fmt.Errorf("parse operator key: %w", err)
	}

	network := cfg.Network
	if network == "" {
		network = "testnet"
	}
	client, err := hedera.ClientForName(network)
	if err != nil {
		return nil, fmt.Errorf("hedera client for %s: %w", network, err)
	}
	client.SetOperator(operatorID, operatorKey)

	return &HederaClient{
		client:      client,
		operatorID:  operatorID,
		operatorKey: operatorKey,
		log:         log.Named("hedera"),
	}, nil
}

func (h *HederaClient) Close() error {
	return h.client.Close()
}

func (h *HederaClient) OperatorID() string {
	return h.operatorID.String()
}

func (h *HederaClient) GenerateKeyPair() (KeyPair, error) {
	key, err := hedera.PrivateKeyGenerateEd25519()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return KeyPair{
		PrivateKey: key.StringRaw(),
		PublicKey:  key.PublicKey().StringRaw(),
	}, nil
}

func (h *HederaClient) CreateAccountIdentity(ctx context.Context, publicKey string, initialTinybars int64) (Receipt, error) {
	const op = "account create"
	pub, err := hedera.PublicKeyFromString(publicKey)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid public key: %v", domain.ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	resp, err := hedera.NewAccountCreateTransaction().
		SetKey(pub).
		SetInitialBalance(hedera.HbarFromTinybar(initialTinybars)).
		Execute(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}
	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	out := fromReceipt(resp, receipt)
	if receipt.AccountID != nil {
		out.AssignedID = receipt.AccountID.String()
	}
	return out, nil
}

func (h *HederaClient) SubmitTransfer(ctx context.Context, t HbarTransfer) (Receipt, error) {
	const op = "hbar transfer"
	sender, err := hedera.AccountIDFromString(t.SenderID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid sender id: %v", domain.ErrValidation, err)
	}
	recipient, err := hedera.AccountIDFromString(t.RecipientID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid recipient id: %v", domain.ErrValidation, err)
	}
	senderKey, err := hedera.PrivateKeyFromString(t.SenderKey)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid sender key: %v", domain.ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	amount := hedera.HbarFromTinybar(t.Tinybars)
	tx, err := hedera.NewTransferTransaction().
		AddHbarTransfer(sender, amount.Negated()).
		AddHbarTransfer(recipient, amount).
		FreezeWith(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	return h.execute(op, tx.Sign(senderKey).Execute)
}

func (h *HederaClient) SubmitTokenCreate(ctx context.Context, spec TokenSpec) (Receipt, error) {
	const op = "token create"
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	tx, err := hedera.NewTokenCreateTransaction().
		SetTokenName(spec.Name).
		SetTokenSymbol(spec.Symbol).
		SetDecimals(spec.Decimals).
		SetInitialSupply(spec.InitialSupply).
		SetTokenType(hedera.TokenTypeFungibleCommon).
		SetSupplyType(hedera.TokenSupplyTypeInfinite).
		SetTreasuryAccountID(h.operatorID).
		SetAdminKey(h.operatorKey.PublicKey()).
		SetSupplyKey(h.operatorKey.PublicKey()).
		FreezeWith(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	resp, err := tx.Sign(h.operatorKey).Execute(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}
	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	out := fromReceipt(resp, receipt)
	if receipt.TokenID != nil {
		out.AssignedID = receipt.TokenID.String()
	}
	return out, nil
}

func (h *HederaClient) SubmitTokenAssociate(ctx context.Context, accountID, tokenID, accountKey string) (Receipt, error) {
	const op = "token associate"
	account, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid account id: %v", domain.ErrValidation, err)
	}
	token, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid token id: %v", domain.ErrValidation, err)
	}
	key, err := hedera.PrivateKeyFromString(accountKey)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid account key: %v", domain.ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	tx, err := hedera.NewTokenAssociateTransaction().
		SetAccountID(account).
		SetTokenIDs(token).
		FreezeWith(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	return h.execute(op, tx.Sign(key).Execute)
}

func (h *HederaClient) SubmitTokenTransfer(ctx context.Context, t TokenTransfer) (Receipt, error) {
	const op = "token transfer"
	token, err := hedera.TokenIDFromString(t.TokenID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid token id: %v", domain.ErrValidation, err)
	}
	sender, err := hedera.AccountIDFromString(t.SenderID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid sender id: %v", domain.ErrValidation, err)
	}
	recipient, err := hedera.AccountIDFromString(t.RecipientID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid recipient id: %v", domain.ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	return h.execute(op, hedera.NewTransferTransaction().
		AddTokenTransfer(token, sender, -t.Amount).
		AddTokenTransfer(token, recipient, t.Amount).
		Execute)
}

func (h *HederaClient) SubmitTokenBurn(ctx context.Context, tokenID string, amount uint64) (Receipt, error) {
	const op = "token burn"
	token, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid token id: %v", domain.ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	return h.execute(op, hedera.NewTokenBurnTransaction().
		SetTokenID(token).
		SetAmount(amount).
		Execute)
}

func (h *HederaClient) SubmitTopicCreate(ctx context.Context, memo string) (Receipt, error) {
	const op = "topic create"
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	resp, err := hedera.NewTopicCreateTransaction().
		SetTopicMemo(memo).
		Execute(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}
	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	out := fromReceipt(resp, receipt)
	if receipt.TopicID != nil {
		out.AssignedID = receipt.TopicID.String()
	}
	return out, nil
}

// SubmitTopicMessage fetches the transaction record so the receipt carries
// the consensus timestamp rather than the valid-start time.
func (h *HederaClient) SubmitTopicMessage(ctx context.Context, topicID string, message []byte) (Receipt, error) {
	const op = "topic message"
	topic, err := hedera.TopicIDFromString(topicID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: invalid topic id: %v", domain.ErrValidation, err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	resp, err := hedera.NewTopicMessageSubmitTransaction().
		SetTopicID(topic).
		SetMessage(message).
		Execute(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}
	record, err := hedera.NewTransactionRecordQuery().
		SetTransactionID(resp.TransactionID).
		Execute(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	return Receipt{
		Status:        record.Receipt.Status.String(),
		TransactionID: resp.TransactionID.String(),
		ConsensusTime: record.ConsensusTimestamp.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (h *HederaClient) SubmitFileCreate(ctx context.Context, contents []byte) (Receipt, error) {
	const op = "file create"
	if err := ctx.Err(); err != nil {
		return Receipt{}, Transient(op, err)
	}

	resp, err := hedera.NewFileCreateTransaction().
		SetKeys(h.operatorKey.PublicKey()).
		SetContents(contents).
		Execute(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}
	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}

	out := fromReceipt(resp, receipt)
	if receipt.FileID != nil {
		out.AssignedID = receipt.FileID.String()
	}
	return out, nil
}

func (h *HederaClient) QueryAccountInfo(ctx context.Context, accountID string) (AccountInfo, error) {
	const op = "account info"
	id, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return AccountInfo{}, fmt.Errorf("%w: invalid account id: %v", domain.ErrValidation, err)
	}

	info, err := await(ctx, func() (hedera.AccountInfo, error) {
		return hedera.NewAccountInfoQuery().SetAccountID(id).Execute(h.client)
	})
	if err != nil {
		return AccountInfo{}, classify(op, err)
	}

	tokens := make([]string, 0, len(info.TokenRelationships))
	for _, rel := range info.TokenRelationships {
		tokens = append(tokens, rel.TokenID.String())
	}
	out := AccountInfo{
		AccountID: info.AccountID.String(),
		Balance:   fmt.Sprintf("%d", info.Balance.AsTinybar()),
		TokenIDs:  tokens,
	}
	if info.Key != nil {
		out.PublicKey = info.Key.String()
	}
	return out, nil
}

func (h *HederaClient) QueryBalance(ctx context.Context, accountID string) (Balance, error) {
	const op = "account balance"
	id, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: invalid account id: %v", domain.ErrValidation, err)
	}

	balance, err := await(ctx, func() (hedera.AccountBalance, error) {
		return hedera.NewAccountBalanceQuery().SetAccountID(id).Execute(h.client)
	})
	if err != nil {
		return Balance{}, classify(op, err)
	}

	tokens := make(map[string]uint64, len(balance.Token))
	for tokenID, amount := range balance.Token {
		tokens[tokenID.String()] = amount
	}
	return Balance{Tinybars: balance.Hbars.AsTinybar(), Tokens: tokens}, nil
}

func (h *HederaClient) QueryNetworkVersion(ctx context.Context) (NetworkVersion, error) {
	info, err := await(ctx, func() (hedera.NetworkVersionInfo, error) {
		return hedera.NewNetworkVersionQuery().Execute(h.client)
	})
	if err != nil {
		return NetworkVersion{}, classify("network version", err)
	}
	return NetworkVersion{
		Services: toVersion(info.ServicesVersion),
		Protobuf: toVersion(info.ProtobufVersion),
	}, nil
}

// execute submits a prepared transaction and waits for its receipt. A
// submitted transaction is never abandoned on context cancellation.
func (h *HederaClient) execute(op string, submit func(*hedera.Client) (hedera.TransactionResponse, error)) (Receipt, error) {
	started := time.Now()
	resp, err := submit(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}
	receipt, err := resp.GetReceipt(h.client)
	if err != nil {
		return Receipt{}, classify(op, err)
	}
	h.log.Debug("ledger receipt",
		zap.String("op", op),
		zap.String("tx_id", resp.TransactionID.String()),
		zap.String("status", receipt.Status.String()),
		zap.Duration("elapsed", time.Since(started)))
	return fromReceipt(resp, receipt), nil
}

// await runs a read-only query, returning early if ctx is done. Queries are
// safe to abandon.
func await[T any](ctx context.Context, query func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := query()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

func fromReceipt(resp hedera.TransactionResponse, receipt hedera.TransactionReceipt) Receipt {
	consensus := "unknown"
	if resp.TransactionID.ValidStart != nil {
		consensus = resp.TransactionID.ValidStart.UTC().Format(time.RFC3339Nano)
	}
	return Receipt{
		Status:        receipt.Status.String(),
		TransactionID: resp.TransactionID.String(),
		ConsensusTime: consensus,
	}
}

func toVersion(v hedera.SemanticVersion) domain.SemanticVersion {
	return domain.SemanticVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// transientStatuses are node-side conditions that clear on their own.
var transientStatuses = map[hedera.Status]bool{
	hedera.StatusBusy:                          true,
	hedera.StatusPlatformNotActive:             true,
	hedera.StatusPlatformTransactionNotCreated: true,
}

func classify(op string, err error) error {
	var precheck hedera.ErrHederaPreCheckStatus
	if errors.As(err, &precheck) {
		if transientStatuses[precheck.Status] {
			return Transient(op, err)
		}
		return Rejected(op, err)
	}
	var receipt hedera.ErrHederaReceiptStatus
	if errors.As(err, &receipt) {
		if transientStatuses[receipt.Status] {
			return Transient(op, err)
		}
		return Rejected(op, err)
	}
	var network hedera.ErrHederaNetwork
	if errors.As(err, &network) {
		return Transient(op, err)
	}
	return classifyGeneric(op, err)
}
