// Package txlog writes audit log entries without ever blocking or failing
// the operation they describe.
package txlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

var writeFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hederaops_txlog_failures_total",
	Help: "Log entries that could not be written",
})

// Appender persists a single log entry.
type Appender interface {
	AppendLogEntry(ctx context.Context, e domain.LogEntry) error
}

// Writer hands each entry to a goroutine. Failures are logged and counted,
// never returned.
type Writer struct {
	appender Appender
	log      *zap.Logger
	timeout  time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

func NewWriter(appender Appender, log *zap.Logger, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		appender: appender,
		log:      log.Named("txlog"),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Record schedules the entry and returns immediately. The write outlives
// cancellation of ctx so a cancelled request is still audited.
func (w *Writer) Record(ctx context.Context, op domain.OperationType, status domain.LogStatus, actorID, message string) {
	entry := domain.LogEntry{
		ID:        uuid.NewString(),
		Type:      op,
		Status:    status,
		ActorID:   actorID,
		Message:   message,
		CreatedAt: w.now(),
	}
	if entry.ActorID == "" {
		entry.ActorID = "unknown"
	}

	base := context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				writeFailures.Inc()
				w.log.Error("log entry write panicked", zap.Any("panic", r), zap.String("type", string(op)))
			}
		}()

		wctx, cancel := context.WithTimeout(base, w.timeout)
		defer cancel()
		if err := w.appender.AppendLogEntry(wctx, entry); err != nil {
			writeFailures.Inc()
			w.log.Warn("log entry not written",
				zap.String("type", string(entry.Type)),
				zap.String("status", string(entry.Status)),
				zap.String("actor", entry.ActorID),
				zap.Error(err))
		}
	}()
}

func (w *Writer) Success(ctx context.Context, op domain.OperationType, actorID, message string) {
	w.Record(ctx, op, domain.LogSuccess, actorID, message)
}

func (w *Writer) Failure(ctx context.Context, op domain.OperationType, actorID string, cause error) {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	w.Record(ctx, op, domain.LogFailed, actorID, message)
}

// Wait blocks until every scheduled write has finished. Used on shutdown.
func (w *Writer) Wait() {
	w.wg.Wait()
}
