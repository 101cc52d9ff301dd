package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
		},
		"auth": map[string]any{
			"bcryptCost":      12,
			"resetMinLatency": "400ms",
		},
		"secretKey": map[string]any{
			"access": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "AUTH_BCRYPTCOST", want: "auth.bcryptCost"},
		{envKey: "AUTH_RESETMINLATENCY", want: "auth.resetMinLatency"},
		{envKey: "SECRETKEY_ACCESS", want: "secretKey.access"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestAuthConfigWithDefaults(t *testing.T) {
	cfg := (*AuthConfig)(nil).withDefaults()

	if cfg.AccessTokenTTL != defaultAccessTokenTTL {
		t.Fatalf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, defaultAccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != defaultRefreshTokenTTL {
		t.Fatalf("RefreshTokenTTL = %v, want %v", cfg.RefreshTokenTTL, defaultRefreshTokenTTL)
	}
	if cfg.ResetTokenTTL != defaultResetTokenTTL {
		t.Fatalf("ResetTokenTTL = %v, want %v", cfg.ResetTokenTTL, defaultResetTokenTTL)
	}
	if cfg.ResetMinLatency != defaultResetMinLatency {
		t.Fatalf("ResetMinLatency = %v, want %v", cfg.ResetMinLatency, defaultResetMinLatency)
	}
}
