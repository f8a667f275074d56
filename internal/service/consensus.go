package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/ledger"
	"github.com/punchamoorthee/hederaops/internal/retry"
)

// CreateTopic opens a consensus topic. An empty memo gets a default.
func (o *Orchestrator) CreateTopic(ctx context.Context, memo string) (*Submission, error) {
	const op = domain.OpTopicCreate
	actor := o.ledger.OperatorID()

	if strings.TrimSpace(memo) == "" {
		memo = defaultTopicMemo
	}

	receipt, err := o.submit(ctx, op, actor, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitTopicCreate(ctx, memo)
	})
	if err != nil {
		return nil, err
	}
	o.succeed(ctx, op, actor, "topic "+receipt.AssignedID+" created")
	return submissionFrom(receipt), nil
}

// SendMessage submits a message to a topic.
func (o *Orchestrator) SendMessage(ctx context.Context, topicID, message string) (*Submission, error) {
	const op = domain.OpTopicMessageSend
	actor := o.ledger.OperatorID()

	if topicID == "" || message == "" {
		return nil, o.invalid(ctx, op, actor, "topic id and message are required")
	}

	receipt, err := o.submit(ctx, op, actor, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitTopicMessage(ctx, topicID, []byte(message))
	})
	if err != nil {
		return nil, err
	}
	o.succeed(ctx, op, actor, fmt.Sprintf("message of %d bytes sent to %s", len(message), topicID))
	return submissionFrom(receipt), nil
}

// CreateFile stores contents on the ledger file service.
func (o *Orchestrator) CreateFile(ctx context.Context, contents []byte) (*Submission, error) {
	const op = domain.OpFileCreate
	actor := o.ledger.OperatorID()

	if len(contents) == 0 {
		return nil, o.invalid(ctx, op, actor, "file contents are required")
	}

	receipt, err := o.retried(ctx, op, actor, func(ctx context.Context) (ledger.Receipt, error) {
		return o.ledger.SubmitFileCreate(ctx, contents)
	})
	if err != nil {
		return nil, err
	}
	o.succeed(ctx, op, actor, "file "+receipt.AssignedID+" created")
	return submissionFrom(receipt), nil
}

// GetNetworkStatus queries the network version directly, retrying
// transient failures. The status cache refreshes through it.
func (o *Orchestrator) GetNetworkStatus(ctx context.Context) (domain.NetworkStatusSnapshot, error) {
	v, err := retry.DoWith(ctx, o.retrier, o.transientOnly(), func(ctx context.Context) (ledger.NetworkVersion, error) {
		return timed("network_version", func() (ledger.NetworkVersion, error) {
			return o.ledger.QueryNetworkVersion(ctx)
		})
	})
	if err != nil {
		return domain.NetworkStatusSnapshot{}, fmt.Errorf("network status: %w", err)
	}
	return domain.NetworkStatusSnapshot{
		Status:          domain.NetworkStatusOK,
		CapturedAt:      time.Now().UTC(),
		ServicesVersion: v.Services,
		ProtobufVersion: v.Protobuf,
	}, nil
}
