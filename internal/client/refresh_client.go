package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// NewHTTPRefreshFunc returns a RefreshFunc that redeems refresh tokens
// against the server's refresh endpoint. A 401 or 403 from the endpoint
// means the token was rejected outright and maps to ErrSessionExpired.
func NewHTTPRefreshFunc(baseURL string, httpClient *http.Client) RefreshFunc {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return func(ctx context.Context, refreshToken string) (TokenPair, error) {
		payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
		if err != nil {
			return TokenPair{}, errors.Wrap(err, "failed to encode refresh request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/refresh", bytes.NewReader(payload))
		if err != nil {
			return TokenPair{}, errors.Wrap(err, "failed to build refresh request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return TokenPair{}, errors.Wrap(err, "refresh request failed")
		}
		defer drainAndClose(resp.Body)

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return TokenPair{}, errors.Wrap(ErrSessionExpired, "refresh token rejected")
		default:
			return TokenPair{}, errors.Errorf("refresh endpoint returned status %d", resp.StatusCode)
		}

		var parsed struct {
			Data struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			} `json:"data"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
			return TokenPair{}, errors.Wrap(err, "failed to decode refresh response")
		}
		if parsed.Data.AccessToken == "" || parsed.Data.RefreshToken == "" {
			return TokenPair{}, errors.New("refresh response missing tokens")
		}

		return TokenPair{
			AccessToken:  parsed.Data.AccessToken,
			RefreshToken: parsed.Data.RefreshToken,
		}, nil
	}
}
