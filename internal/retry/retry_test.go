package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	rs := &recordingSleeper{}
	r := New(DefaultPolicy()).WithSleeper(rs.sleep)

	calls := 0
	v, err := Do(context.Background(), r, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rs.delays)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	rs := &recordingSleeper{}
	r := New(Policy{MaxAttempts: 5, InitialDelay: 10 * time.Millisecond, Factor: 2}).WithSleeper(rs.sleep)

	calls := 0
	v, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("boom")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, rs.delays)
}

func TestDoBoundedByMaxAttempts(t *testing.T) {
	for _, n := range []int{1, 2, 3, 6} {
		rs := &recordingSleeper{}
		r := New(Policy{MaxAttempts: n, InitialDelay: time.Millisecond, Factor: 3}).WithSleeper(rs.sleep)

		calls := 0
		last := errors.New("last")
		_, err := Do(context.Background(), r, func(context.Context) (struct{}, error) {
			calls++
			if calls == n {
				return struct{}{}, last
			}
			return struct{}{}, errors.New("earlier")
		})

		assert.Same(t, last, err, "last error propagates unchanged")
		assert.Equal(t, n, calls)
		assert.Len(t, rs.delays, n-1)
		for i := 1; i < len(rs.delays); i++ {
			assert.GreaterOrEqual(t, rs.delays[i], rs.delays[i-1])
		}
	}
}

func TestDoRejectsZeroAttempts(t *testing.T) {
	r := New(Policy{MaxAttempts: 0})

	calls := 0
	_, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		return 1, nil
	})

	assert.ErrorIs(t, err, ErrInvalidAttempts)
	assert.Zero(t, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("insufficient balance")
	p := DefaultPolicy().WithRetryable(func(err error) bool { return !errors.Is(err, permanent) })
	rs := &recordingSleeper{}
	r := New(p).WithSleeper(rs.sleep)

	calls := 0
	_, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rs.delays)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(Policy{MaxAttempts: 3, InitialDelay: time.Hour, Factor: 2})

	calls := 0
	boom := errors.New("boom")
	_, err := Do(ctx, r, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{InitialDelay: 500 * time.Millisecond, Factor: 2}

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 500*time.Millisecond, p.Delay(2))
	assert.Equal(t, time.Second, p.Delay(3))
	assert.Equal(t, 2*time.Second, p.Delay(4))
}
