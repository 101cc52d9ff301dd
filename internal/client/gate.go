// Package client implements the consumer side of the session lifecycle:
// holding the token pair, refreshing it when the server rejects an access
// token, and retiring the session when the refresh token itself is rejected.
package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired means the refresh token was rejected by the server. The
// session cannot be recovered; the owner must log in again.
var ErrSessionExpired = errors.New("session expired")

// ErrNoSession means Refresh was called with no refresh token on hand.
var ErrNoSession = errors.New("no active session")

const (
	defaultCooldown       = 5 * time.Second
	defaultRefreshTimeout = 15 * time.Second
)

// TokenPair is the client's copy of an issued session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshFunc exchanges a refresh token for a new pair. It returns
// ErrSessionExpired when the server rejects the token; any other error is
// transient.
type RefreshFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

// GateConfig configures a RefreshGate.
type GateConfig struct {
	Refresh RefreshFunc

	// OnSessionExpired runs at most once per session when a refresh is
	// terminally rejected. Typically it clears saved credentials and
	// prompts for login.
	OnSessionExpired func()

	// Cooldown bounds how often the gate performs refresh calls. Callers
	// arriving inside the window get the previous outcome instead of a new
	// network round trip.
	Cooldown time.Duration

	// RefreshTimeout bounds the refresh call itself. The call runs detached
	// from any single waiter's context, so one cancelled request cannot
	// abort a refresh that others are waiting on.
	RefreshTimeout time.Duration

	Logger *slog.Logger
}

// RefreshGate holds the current token pair and funnels every refresh through
// a single in-flight call. Any number of goroutines may hit it concurrently;
// at most one refresh request reaches the server at a time.
type RefreshGate struct {
	refresh        RefreshFunc
	onExpired      func()
	cooldown       time.Duration
	refreshTimeout time.Duration
	logger         *slog.Logger

	flight singleflight.Group

	mu          sync.Mutex
	pair        TokenPair
	expired     bool
	lastAttempt time.Time
	lastToken   string
	lastErr     error
	haveLastTry bool
}

// NewRefreshGate is the constructor for RefreshGate.
func NewRefreshGate(cfg GateConfig) *RefreshGate {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RefreshGate{
		refresh:        cfg.Refresh,
		onExpired:      cfg.OnSessionExpired,
		cooldown:       cooldown,
		refreshTimeout: refreshTimeout,
		logger:         logger,
	}
}

// SetSession installs a fresh pair, e.g. after login. It re-arms the
// session-expired callback.
func (g *RefreshGate) SetSession(pair TokenPair) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pair = pair
	g.expired = false
	g.haveLastTry = false
}

// AccessToken returns the current access token, which may be empty.
func (g *RefreshGate) AccessToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.pair.AccessToken
}

// Refresh obtains a fresh access token. Concurrent callers collapse into one
// server call and all receive its outcome. A caller whose context ends while
// waiting gets its context error; the in-flight refresh keeps going for the
// others.
func (g *RefreshGate) Refresh(ctx context.Context) (string, error) {
	ch := g.flight.DoChan("refresh", func() (any, error) {
		return g.doRefresh()
	})

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "abandoned refresh wait")
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}

		return res.Val.(string), nil
	}
}

func (g *RefreshGate) doRefresh() (string, error) {
	g.mu.Lock()
	if g.expired {
		g.mu.Unlock()

		return "", ErrSessionExpired
	}
	if g.haveLastTry && time.Since(g.lastAttempt) < g.cooldown {
		token, err := g.lastToken, g.lastErr
		g.mu.Unlock()

		return token, err
	}
	refreshToken := g.pair.RefreshToken
	g.mu.Unlock()

	if refreshToken == "" {
		return "", ErrNoSession
	}

	// Detached from every waiter: a refresh in progress must survive the
	// cancellation of whichever request happened to trigger it.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(context.Background()), g.refreshTimeout)
	defer cancel()

	pair, err := g.refresh(callCtx, refreshToken)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastAttempt = time.Now()
	g.haveLastTry = true

	if err != nil {
		g.lastToken, g.lastErr = "", err
		if errors.Is(err, ErrSessionExpired) {
			g.retireSessionLocked()
		} else {
			g.logger.Warn("Token refresh failed", slog.Any("error", err))
		}

		return "", err
	}

	g.pair = pair
	g.lastToken, g.lastErr = pair.AccessToken, nil

	return pair.AccessToken, nil
}

// retireSessionLocked clears the pair and fires the expiry callback once.
// Caller holds g.mu.
func (g *RefreshGate) retireSessionLocked() {
	if g.expired {
		return
	}
	g.expired = true
	g.pair = TokenPair{}
	g.logger.Info("Session expired, refresh token rejected")

	if g.onExpired != nil {
		// Run outside the lock; the callback may call back into the gate.
		go g.onExpired()
	}
}
