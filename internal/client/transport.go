package client

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Transport is an http.RoundTripper that attaches the session's access token
// and transparently retries a request exactly once after a 401, behind a
// refresh funneled through the gate. A second 401 is returned as-is; the
// transport never loops.
type Transport struct {
	base http.RoundTripper
	gate *RefreshGate
}

// NewTransport wraps base with session handling. A nil base uses
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, gate *RefreshGate) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{base: base, gate: gate}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.send(req, t.gate.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// A request whose body cannot be replayed cannot be retried.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	token, refreshErr := t.gate.Refresh(req.Context())
	if refreshErr != nil {
		// Hand the original 401 back; the refresh outcome (including
		// session expiry) has already been handled by the gate.
		return resp, nil
	}

	drainAndClose(resp.Body)

	return t.send(req, token)
}

// send issues a copy of req carrying the given bearer token.
func (t *Transport) send(req *http.Request, token string) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, errors.Wrap(err, "failed to rewind request body")
		}
		cloned.Body = body
	}
	if token != "" {
		cloned.Header.Set("Authorization", "Bearer "+token)
	}

	return t.base.RoundTrip(cloned)
}

// drainAndClose releases the response body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
