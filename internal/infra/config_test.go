package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
app:
  name: maker
  version: "1.0.0"
venue:
  ws_url: ws://localhost:8900
  identity: "0101010101010101010101010101010101010101010101010101010101010101"
  market: BASE-QUOTE
  bids_account: acct-bids
  asks_account: acct-asks
  event_queue_account: acct-events
  base_wallet: wallet-base
  quote_wallet: wallet-quote
quoting:
  standing_order_size: "2.5"
  base_lot_size: "0.05"
  quote_tick_size: "0.01"
  min_bid_floor: 1
  max_ask_ceiling: 1000000
  max_attempts: 3
  inbox_size: 1024
settle:
  interval_sec: 30
journal:
  path: maker.db
logging:
  level: info
`

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigValid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Venue.Market != "BASE-QUOTE" {
		t.Errorf("market = %q", cfg.Venue.Market)
	}
	if cfg.Quoting.MaxAttempts != 3 {
		t.Errorf("max attempts = %d", cfg.Quoting.MaxAttempts)
	}
}

func TestStandingLotsConversion(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	// 2.5 units at 0.05 units/lot
	if got := cfg.StandingLots(); got != 50 {
		t.Errorf("standing lots = %d, want 50", got)
	}
}

func TestIdentityDecoding(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	owner, err := cfg.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	for i := range owner {
		if owner[i] != 0x01 {
			t.Fatalf("owner[%d] = %#x", i, owner[i])
		}
	}
}

func TestEnvOverridesIdentity(t *testing.T) {
	override := strings.Repeat("ab", 32)
	t.Setenv("MAKER_IDENTITY", override)

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Venue.Identity != override {
		t.Errorf("identity = %q, want env override", cfg.Venue.Identity)
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{"http url", func(y string) string {
			return strings.Replace(y, "ws://localhost:8900", "http://localhost:8900", 1)
		}, "WS URL"},
		{"short identity", func(y string) string {
			return strings.Replace(y, "0101010101010101010101010101010101010101010101010101010101010101", "0102", 1)
		}, "32 bytes"},
		{"missing bids account", func(y string) string {
			return strings.Replace(y, "bids_account: acct-bids", "bids_account: \"\"", 1)
		}, "bids_account"},
		{"size not lot multiple", func(y string) string {
			return strings.Replace(y, `standing_order_size: "2.5"`, `standing_order_size: "2.52"`, 1)
		}, "multiple"},
		{"ceiling below floor", func(y string) string {
			return strings.Replace(y, "max_ask_ceiling: 1000000", "max_ask_ceiling: 1", 1)
		}, "exceed"},
		{"zero settle interval", func(y string) string {
			return strings.Replace(y, "interval_sec: 30", "interval_sec: 0", 1)
		}, "settle interval"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.mangle(validYAML)))
			if err == nil {
				t.Fatal("want validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestRequestTimeoutDefault(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RequestTimeout().Seconds() != 5 {
		t.Errorf("default timeout = %v", cfg.RequestTimeout())
	}
}
