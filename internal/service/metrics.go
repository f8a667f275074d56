package service

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/txlog"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hederaops_operations_total",
		Help: "Orchestrated operations, labeled by outcome",
	}, []string{"operation", "status"})

	ledgerCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hederaops_ledger_call_duration_seconds",
		Help:    "Latency of ledger calls including consensus",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})
)

// outcome labels a failure for the operations counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrTransientRemote):
		return "unavailable"
	case errors.Is(err, domain.ErrRemoteRejection):
		return "rejected"
	case errors.Is(err, domain.ErrLocalPersistence):
		return "persistence"
	default:
		return "error"
	}
}

// tracker reports the outcome of an operation to metrics, the audit log and
// the process log. Audit writes never affect the caller.
type tracker struct {
	audit *txlog.Writer
	log   *zap.Logger
}

func (t tracker) succeed(ctx context.Context, op domain.OperationType, actor, message string) {
	operationsTotal.WithLabelValues(string(op), outcome(nil)).Inc()
	t.audit.Success(ctx, op, actor, message)
}

func (t tracker) fail(ctx context.Context, op domain.OperationType, actor string, err error) {
	operationsTotal.WithLabelValues(string(op), outcome(err)).Inc()
	t.audit.Failure(ctx, op, actor, err)
	t.log.Warn("operation failed",
		zap.String("operation", string(op)),
		zap.String("actor", actor),
		zap.Error(err))
}

// timed runs call and records its latency under op.
func timed[T any](op domain.OperationType, call func() (T, error)) (T, error) {
	start := time.Now()
	v, err := call()
	ledgerCallDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	return v, err
}
