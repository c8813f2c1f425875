package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BPM_* environment variable overrides, and returns
// the final Config. A missing file is not an error; the defaults plus the
// environment are enough to run against a local backend. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BPM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Backend ──
	setStr(&cfg.Backend.BaseURL, "BPM_BACKEND_BASE_URL")
	setStr(&cfg.Backend.WsURL, "BPM_BACKEND_WS_URL")
	setDuration(&cfg.Backend.Timeout, "BPM_BACKEND_TIMEOUT")

	// ── Contracts ──
	setStr(&cfg.Contracts.MarketAddress, "BPM_CONTRACTS_MARKET_ADDRESS")
	setStr(&cfg.Contracts.TokenAddress, "BPM_CONTRACTS_TOKEN_ADDRESS")

	// ── Wallet ──
	setStr(&cfg.Wallet.RpcURL, "BPM_WALLET_RPC_URL")
	setInt(&cfg.Wallet.ChainID, "BPM_WALLET_CHAIN_ID")
	setStr(&cfg.Wallet.PrivateKey, "BPM_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "BPM_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "BPM_WALLET_KEY_PASSWORD")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BPM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BPM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BPM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BPM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BPM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BPM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BPM_REDIS_TLS_ENABLED")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BPM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BPM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BPM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BPM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BPM_MODE")
	setStr(&cfg.LogLevel, "BPM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
