package client

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshGate_Refresh_Success(t *testing.T) {
	var calls atomic.Int32
	gate := NewRefreshGate(GateConfig{
		Refresh: func(_ context.Context, refreshToken string) (TokenPair, error) {
			calls.Add(1)
			assert.Equal(t, "refresh-1", refreshToken)

			return TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
		},
		Logger: discardLogger(),
	})
	gate.SetSession(TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	token, err := gate.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, "access-2", gate.AccessToken())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRefreshGate_Refresh_NoSession(t *testing.T) {
	gate := NewRefreshGate(GateConfig{
		Refresh: func(context.Context, string) (TokenPair, error) {
			t.Fatal("refresh must not be called without a session")

			return TokenPair{}, nil
		},
		Logger: discardLogger(),
	})

	_, err := gate.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRefreshGate_ConcurrentCallersCollapse(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	gate := NewRefreshGate(GateConfig{
		Refresh: func(context.Context, string) (TokenPair, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release

			return TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
		},
		Logger: discardLogger(),
	})
	gate.SetSession(TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	const waiters = 10
	var wg sync.WaitGroup
	tokens := make([]string, waiters)
	errs := make([]error, waiters)

	for i := range waiters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = gate.Refresh(context.Background())
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	for i := range waiters {
		require.NoError(t, errs[i])
		assert.Equal(t, "access-2", tokens[i])
	}
	assert.Equal(t, int32(1), calls.Load(), "all concurrent callers must share one refresh call")
}

func TestRefreshGate_CooldownSuppressesRepeatCalls(t *testing.T) {
	var calls atomic.Int32
	gate := NewRefreshGate(GateConfig{
		Refresh: func(context.Context, string) (TokenPair, error) {
			calls.Add(1)

			return TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
		},
		Cooldown: time.Minute,
		Logger:   discardLogger(),
	})
	gate.SetSession(TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	first, err := gate.Refresh(context.Background())
	require.NoError(t, err)

	// Inside the cooldown window the gate answers from the last outcome.
	second, err := gate.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRefreshGate_CooldownCachesFailures(t *testing.T) {
	var calls atomic.Int32
	transient := errors.New("server unreachable")
	gate := NewRefreshGate(GateConfig{
		Refresh: func(context.Context, string) (TokenPair, error) {
			calls.Add(1)

			return TokenPair{}, transient
		},
		Cooldown: time.Minute,
		Logger:   discardLogger(),
	})
	gate.SetSession(TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	_, err := gate.Refresh(context.Background())
	require.ErrorIs(t, err, transient)

	_, err = gate.Refresh(context.Background())
	require.ErrorIs(t, err, transient)
	assert.Equal(t, int32(1), calls.Load(), "a failure inside the cooldown must not trigger a second call")
}

func TestRefreshGate_SessionExpiredFiresCallbackOnce(t *testing.T) {
	var callbacks atomic.Int32
	expired := make(chan struct{})

	gate := NewRefreshGate(GateConfig{
		Refresh: func(context.Context, string) (TokenPair, error) {
			return TokenPair{}, errors.Wrap(ErrSessionExpired, "refresh token rejected")
		},
		OnSessionExpired: func() {
			if callbacks.Add(1) == 1 {
				close(expired)
			}
		},
		Cooldown: time.Millisecond,
		Logger:   discardLogger(),
	})
	gate.SetSession(TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	const waiters = 8
	var wg sync.WaitGroup
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gate.Refresh(context.Background())
			assert.ErrorIs(t, err, ErrSessionExpired)
		}()
	}
	wg.Wait()

	// Subsequent refreshes short-circuit without touching the server.
	_, err := gate.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, gate.AccessToken())

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("expiry callback never fired")
	}

	// Give any duplicate callback a moment to show itself.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), callbacks.Load(), "expiry callback must fire exactly once per session")
}

func TestRefreshGate_NewSessionRearmsCallback(t *testing.T) {
	var callbacks atomic.Int32
	fired := make(chan struct{}, 2)

	gate := NewRefreshGate(GateConfig{
		Refresh: func(context.Context, string) (TokenPair, error) {
			return TokenPair{}, ErrSessionExpired
		},
		OnSessionExpired: func() {
			callbacks.Add(1)
			fired <- struct{}{}
		},
		Cooldown: time.Millisecond,
		Logger:   discardLogger(),
	})

	gate.SetSession(TokenPair{AccessToken: "a1", RefreshToken: "r1"})
	_, err := gate.Refresh(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	<-fired

	// Logging in again arms the callback for the new session.
	gate.SetSession(TokenPair{AccessToken: "a2", RefreshToken: "r2"})
	_, err = gate.Refresh(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expiry callback did not fire for the second session")
	}
	assert.Equal(t, int32(2), callbacks.Load())
}

func TestRefreshGate_WaiterCancellationDoesNotAbortFlight(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	gate := NewRefreshGate(GateConfig{
		Refresh: func(ctx context.Context, _ string) (TokenPair, error) {
			calls.Add(1)
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
				return TokenPair{}, ctx.Err()
			}

			return TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
		},
		Logger: discardLogger(),
	})
	gate.SetSession(TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})

	cancelCtx, cancel := context.WithCancel(context.Background())

	type result struct {
		token string
		err   error
	}
	cancelled := make(chan result, 1)
	patient := make(chan result, 1)

	go func() {
		token, err := gate.Refresh(cancelCtx)
		cancelled <- result{token, err}
	}()

	<-started
	go func() {
		token, err := gate.Refresh(context.Background())
		patient <- result{token, err}
	}()

	// First waiter walks away; the flight must keep going.
	cancel()
	got := <-cancelled
	require.ErrorIs(t, got.err, context.Canceled)

	close(release)
	got = <-patient
	require.NoError(t, got.err)
	assert.Equal(t, "access-2", got.token)
	assert.Equal(t, int32(1), calls.Load())

	// The gate itself ended up with the fresh pair.
	assert.Equal(t, "access-2", gate.AccessToken())
}
