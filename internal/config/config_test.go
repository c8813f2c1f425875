package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "ws://localhost:8000", cfg.Backend.WsURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, "0xe03FC221777fA24583552d413ea240526343d757", cfg.Contracts.MarketAddress)
	assert.Equal(t, "0xF10b6954E7974ebCDd79D0c0f8ADdE434A9ac683", cfg.Contracts.TokenAddress)
	assert.Equal(t, 97, cfg.Wallet.ChainID)
	assert.Equal(t, "interactive", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Redis.Enabled)
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Mode = "turbo" },
			wantErr: "unknown mode",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "unknown log_level",
		},
		{
			name:    "empty base url",
			mutate:  func(c *Config) { c.Backend.BaseURL = "" },
			wantErr: "base_url must not be empty",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Backend.Timeout.Duration = 0 },
			wantErr: "timeout must be positive",
		},
		{
			name: "watch mode without ws url",
			mutate: func(c *Config) {
				c.Mode = "watch"
				c.Backend.WsURL = ""
			},
			wantErr: "ws_url must not be empty",
		},
		{
			name:    "empty market address",
			mutate:  func(c *Config) { c.Contracts.MarketAddress = "" },
			wantErr: "market_address must not be empty",
		},
		{
			name:    "key file without password",
			mutate:  func(c *Config) { c.Wallet.EncryptedKeyPath = "/tmp/key.json" },
			wantErr: "key_password is required",
		},
		{
			name: "key without rpc url",
			mutate: func(c *Config) {
				c.Wallet.PrivateKey = "abc123"
				c.Wallet.RpcURL = ""
			},
			wantErr: "rpc_url must not be empty",
		},
		{
			name:    "non-positive chain id",
			mutate:  func(c *Config) { c.Wallet.ChainID = 0 },
			wantErr: "chain_id must be positive",
		},
		{
			name: "redis enabled without addr",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Addr = ""
			},
			wantErr: "addr must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "nope"
	cfg.Backend.BaseURL = ""
	cfg.Wallet.ChainID = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "base_url")
	assert.Contains(t, err.Error(), "chain_id")
}

func TestWalletConfigured(t *testing.T) {
	cfg := Defaults()
	assert.False(t, cfg.WalletConfigured())

	cfg.Wallet.PrivateKey = "abc123"
	assert.True(t, cfg.WalletConfigured())

	cfg.Wallet.PrivateKey = ""
	cfg.Wallet.EncryptedKeyPath = "/tmp/key.json"
	assert.True(t, cfg.WalletConfigured())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "interactive", cfg.Mode)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "markets"
log_level = "debug"

[backend]
base_url = "http://backend.internal:9000"
timeout = "5s"

[redis]
enabled = true
addr = "redis.internal:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "markets", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://backend.internal:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout.Duration)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)

	// Untouched sections keep their defaults.
	assert.Equal(t, 97, cfg.Wallet.ChainID)
	assert.Equal(t, "ws://localhost:8000", cfg.Backend.WsURL)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("mode = [broken"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BPM_BACKEND_BASE_URL", "http://env.internal:8000")
	t.Setenv("BPM_BACKEND_TIMEOUT", "90s")
	t.Setenv("BPM_WALLET_CHAIN_ID", "56")
	t.Setenv("BPM_REDIS_ENABLED", "true")
	t.Setenv("BPM_NOTIFY_EVENTS", "bet_placed, error")
	t.Setenv("BPM_MODE", "watch")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://env.internal:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, 56, cfg.Wallet.ChainID)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"bet_placed", "error"}, cfg.Notify.Events)
	assert.Equal(t, "watch", cfg.Mode)
}

func TestEnvOverridesIgnoreUnparseable(t *testing.T) {
	t.Setenv("BPM_WALLET_CHAIN_ID", "not-a-number")
	t.Setenv("BPM_BACKEND_TIMEOUT", "soon")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, 97, cfg.Wallet.ChainID)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout.Duration)
}
