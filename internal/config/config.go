// Package config defines the top-level configuration for the BPM prediction
// market client and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BPM_* environment variables.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Contracts ContractsConfig `toml:"contracts"`
	Wallet    WalletConfig    `toml:"wallet"`
	Redis     RedisConfig     `toml:"redis"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// BackendConfig holds the prediction-market backend endpoints.
type BackendConfig struct {
	BaseURL string `toml:"base_url"`
	WsURL   string `toml:"ws_url"`
	// Timeout bounds every REST call to the backend.
	Timeout duration `toml:"timeout"`
}

// ContractsConfig holds the on-chain contract addresses the client displays
// and queries. The market contract itself is operated by the backend; the
// token contract is used for the BPM balance lookup.
type ContractsConfig struct {
	MarketAddress string `toml:"market_address"`
	TokenAddress  string `toml:"token_address"`
}

// WalletConfig holds the chain node endpoint and key material for the wallet
// bridge. Either private_key or encrypted_key_path must be set for modes that
// place bets.
type WalletConfig struct {
	RpcURL           string `toml:"rpc_url"`
	ChainID          int    `toml:"chain_id"`
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// RedisConfig holds parameters for the optional last-known-good market cache.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// NotifyConfig holds operator notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30s", "2m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			WsURL:   "ws://localhost:8000",
			Timeout: duration{30 * time.Second},
		},
		Contracts: ContractsConfig{
			MarketAddress: "0xe03FC221777fA24583552d413ea240526343d757",
			TokenAddress:  "0xF10b6954E7974ebCDd79D0c0f8ADdE434A9ac683",
		},
		Wallet: WalletConfig{
			RpcURL:  "https://data-seed-prebsc-1-s1.binance.org:8545",
			ChainID: 97,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Notify: NotifyConfig{
			Events: []string{"bet_placed", "bet_failed", "markets_degraded", "error"},
		},
		Mode:     "interactive",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"interactive": true,
	"markets":     true,
	"watch":       true,
	"bet":         true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: interactive, markets, watch, bet)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend: base_url must not be empty")
	}
	if c.Backend.Timeout.Duration <= 0 {
		errs = append(errs, "backend: timeout must be positive")
	}
	if strings.ToLower(c.Mode) == "watch" && c.Backend.WsURL == "" {
		errs = append(errs, "backend: ws_url must not be empty for mode watch")
	}

	if c.Contracts.MarketAddress == "" {
		errs = append(errs, "contracts: market_address must not be empty")
	}
	if c.Contracts.TokenAddress == "" {
		errs = append(errs, "contracts: token_address must not be empty")
	}

	// The wallet bridge is optional (the client degrades to browse-only), but
	// when a key file is configured its password must accompany it.
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}
	if (c.Wallet.PrivateKey != "" || c.Wallet.EncryptedKeyPath != "") && c.Wallet.RpcURL == "" {
		errs = append(errs, "wallet: rpc_url must not be empty when a key is configured")
	}
	if c.Wallet.ChainID <= 0 {
		errs = append(errs, fmt.Sprintf("wallet: chain_id must be positive, got %d", c.Wallet.ChainID))
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// WalletConfigured reports whether any wallet key source is set. Without one
// the client runs browse-only and ConnectWallet reports the bridge as absent.
func (c *Config) WalletConfigured() bool {
	return c.Wallet.PrivateKey != "" || c.Wallet.EncryptedKeyPath != ""
}
