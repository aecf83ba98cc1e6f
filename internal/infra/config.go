package infra

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// Config holds every runtime setting. LoadConfig reads the YAML file,
// applies environment overrides for sensitive values, then validates.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Venue struct {
		WSURL             string `yaml:"ws_url"`
		Identity          string `yaml:"identity"` // hex-encoded 32-byte owner key
		Market            string `yaml:"market"`
		BidsAccount       string `yaml:"bids_account"`
		AsksAccount       string `yaml:"asks_account"`
		EventQueueAccount string `yaml:"event_queue_account"`
		BaseWallet        string `yaml:"base_wallet"`
		QuoteWallet       string `yaml:"quote_wallet"`
		RequestTimeoutMS  int    `yaml:"request_timeout_ms"`
	} `yaml:"venue"`

	Quoting struct {
		// Human units; converted to lots through the lot sizes below.
		StandingOrderSize decimal.Decimal `yaml:"standing_order_size"`
		BaseLotSize       decimal.Decimal `yaml:"base_lot_size"`
		QuoteTickSize     decimal.Decimal `yaml:"quote_tick_size"`
		MinBidFloor       int64           `yaml:"min_bid_floor"`
		MaxAskCeiling     int64           `yaml:"max_ask_ceiling"`
		MaxAttempts       int             `yaml:"max_attempts"`
		InboxSize         int             `yaml:"inbox_size"`
	} `yaml:"quoting"`

	Settle struct {
		IntervalSec int `yaml:"interval_sec"`
	} `yaml:"settle"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, &domain.ConfigError{Field: path, Err: err}
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Venue.WSURL == "" || (!hasPrefix(c.Venue.WSURL, "ws://") && !hasPrefix(c.Venue.WSURL, "wss://")) {
		return fmt.Errorf("invalid venue WS URL: %s", c.Venue.WSURL)
	}
	if _, err := c.Identity(); err != nil {
		return err
	}
	if c.Venue.Market == "" {
		return fmt.Errorf("venue market is required")
	}
	for name, acct := range map[string]string{
		"bids_account":        c.Venue.BidsAccount,
		"asks_account":        c.Venue.AsksAccount,
		"event_queue_account": c.Venue.EventQueueAccount,
		"base_wallet":         c.Venue.BaseWallet,
		"quote_wallet":        c.Venue.QuoteWallet,
	} {
		if acct == "" {
			return fmt.Errorf("venue %s is required", name)
		}
	}

	if c.Quoting.StandingOrderSize.Sign() <= 0 {
		return fmt.Errorf("standing order size must be positive")
	}
	if c.Quoting.BaseLotSize.Sign() <= 0 {
		return fmt.Errorf("base lot size must be positive")
	}
	if !c.Quoting.StandingOrderSize.Mod(c.Quoting.BaseLotSize).IsZero() {
		return fmt.Errorf("standing order size %s is not a multiple of base lot size %s",
			c.Quoting.StandingOrderSize, c.Quoting.BaseLotSize)
	}
	if c.Quoting.MinBidFloor <= 0 {
		return fmt.Errorf("min bid floor must be positive")
	}
	if c.Quoting.MaxAskCeiling <= c.Quoting.MinBidFloor {
		return fmt.Errorf("max ask ceiling %d must exceed min bid floor %d",
			c.Quoting.MaxAskCeiling, c.Quoting.MinBidFloor)
	}

	if c.Settle.IntervalSec <= 0 {
		return fmt.Errorf("settle interval must be positive")
	}
	return nil
}

// Identity decodes the hex owner key into the 32-byte form the venue uses.
func (c *Config) Identity() ([32]byte, error) {
	var owner [32]byte
	raw, err := hex.DecodeString(c.Venue.Identity)
	if err != nil {
		return owner, fmt.Errorf("venue identity is not valid hex: %w", err)
	}
	if len(raw) != 32 {
		return owner, fmt.Errorf("venue identity must be 32 bytes, got %d", len(raw))
	}
	copy(owner[:], raw)
	return owner, nil
}

// StandingLots converts the human-unit standing size into base lots.
func (c *Config) StandingLots() quant.QtyLots {
	lots := c.Quoting.StandingOrderSize.Div(c.Quoting.BaseLotSize)
	return quant.QtyLots(lots.IntPart())
}

// SettleInterval returns the periodic sweep interval.
func (c *Config) SettleInterval() time.Duration {
	return time.Duration(c.Settle.IntervalSec) * time.Second
}

// RequestTimeout returns the RPC timeout, defaulting to five seconds.
func (c *Config) RequestTimeout() time.Duration {
	if c.Venue.RequestTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Venue.RequestTimeoutMS) * time.Millisecond
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv replaces sensitive values from the environment when set.
func overrideWithEnv(cfg *Config) {
	if id := os.Getenv("MAKER_IDENTITY"); id != "" {
		cfg.Venue.Identity = id
	}
	if url := os.Getenv("MAKER_WS_URL"); url != "" {
		cfg.Venue.WSURL = url
	}
}
