package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zeroBackoff struct{}

func (zeroBackoff) Next(int) time.Duration { return 0 }

func TestDo_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, Policy{Name: "test_success", Attempts: 5, Backoff: zeroBackoff{}})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausts(t *testing.T) {
	var attempts []int
	var exhausted error
	boom := errors.New("boom")

	err := Do(context.Background(), func() error { return boom }, Policy{
		Name:      "test_exhaust",
		Attempts:  3,
		Backoff:   zeroBackoff{},
		OnAttempt: func(i int, _ error) { attempts = append(attempts, i) },
		OnExhaust: func(err error) { exhausted = err },
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0, 1, 2}, attempts)
	assert.ErrorIs(t, exhausted, boom)
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	fatal := errors.New("fatal")
	err := Do(context.Background(), func() error { calls++; return fatal }, Policy{
		Attempts:  5,
		Backoff:   zeroBackoff{},
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("temporary")
	}, Policy{Attempts: 3, Backoff: ExpoJitter{Base: time.Hour}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExpoJitter_Next(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10))
	assert.Equal(t, 100*time.Millisecond, b.Next(-1))

	j := ExpoJitter{Base: time.Second, Jitter: 0.2}
	for i := 0; i < 20; i++ {
		d := j.Next(0)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}
