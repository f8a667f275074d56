package txlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

type memAppender struct {
	mu      sync.Mutex
	entries []domain.LogEntry
	err     error
	block   chan struct{}
	ctxErr  error
}

func (m *memAppender) AppendLogEntry(ctx context.Context, e domain.LogEntry) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestRecordWritesEntry(t *testing.T) {
	app := &memAppender{}
	w := NewWriter(app, zap.NewNop(), time.Second)

	w.Success(context.Background(), domain.OpTopicCreate, "0.0.2", "topic 0.0.9 created")
	w.Wait()

	require.Len(t, app.entries, 1)
	e := app.entries[0]
	assert.Equal(t, domain.OpTopicCreate, e.Type)
	assert.Equal(t, domain.LogSuccess, e.Status)
	assert.Equal(t, "0.0.2", e.ActorID)
	assert.NotEmpty(t, e.ID)
}

func TestFailureCarriesCause(t *testing.T) {
	app := &memAppender{}
	w := NewWriter(app, zap.NewNop(), time.Second)

	w.Failure(context.Background(), domain.OpTokenBurn, "", errors.New("TOKEN_WAS_DELETED"))
	w.Wait()

	require.Len(t, app.entries, 1)
	assert.Equal(t, domain.LogFailed, app.entries[0].Status)
	assert.Equal(t, "unknown", app.entries[0].ActorID)
	assert.Equal(t, "TOKEN_WAS_DELETED", app.entries[0].Message)
}

func TestRecordDoesNotBlockCaller(t *testing.T) {
	app := &memAppender{block: make(chan struct{})}
	w := NewWriter(app, zap.NewNop(), time.Second)

	done := make(chan struct{})
	go func() {
		w.Success(context.Background(), domain.OpAccountInfo, "0.0.5", "")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on the appender")
	}
	close(app.block)
	w.Wait()
	assert.Len(t, app.entries, 1)
}

func TestAppenderErrorIsSwallowed(t *testing.T) {
	app := &memAppender{err: errors.New("db down")}
	w := NewWriter(app, zap.NewNop(), time.Second)

	assert.NotPanics(t, func() {
		w.Success(context.Background(), domain.OpHbarTransfer, "0.0.100", "")
		w.Wait()
	})
	assert.Empty(t, app.entries)
}

func TestWriteSurvivesCancelledRequest(t *testing.T) {
	app := &memAppender{}
	w := NewWriter(app, zap.NewNop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Failure(ctx, domain.OpHbarTransfer, "0.0.100", context.Canceled)
	w.Wait()

	require.Len(t, app.entries, 1)
	assert.NoError(t, app.ctxErr)
}
