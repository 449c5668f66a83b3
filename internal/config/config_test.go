package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: scanner-test\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "scanner-test" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Thresholds.MinLiquidityDecimal().String() != "1000" {
		t.Errorf("MinLiquidity = %v, want 1000", cfg.Thresholds.MinLiquidity)
	}
	if cfg.Thresholds.PriceChangeFractionDecimal().String() != "0.05" {
		t.Errorf("PriceChangeFraction = %s, want 0.05", cfg.Thresholds.PriceChangeFractionDecimal())
	}
	if cfg.Scanner.Interval != 10*time.Second {
		t.Errorf("Interval = %v, want 10s", cfg.Scanner.Interval)
	}
	if cfg.Scanner.CacheExpiration != 5*time.Minute {
		t.Errorf("CacheExpiration = %v, want 5m", cfg.Scanner.CacheExpiration)
	}
	if cfg.Indicators.RSIPeriod != 14 || cfg.Indicators.WMAPeriod != 14 {
		t.Errorf("periods = %d/%d, want 14/14", cfg.Indicators.RSIPeriod, cfg.Indicators.WMAPeriod)
	}
	if cfg.Execution.SlippageDecimal().String() != "0.01" {
		t.Errorf("Slippage = %s, want 0.01", cfg.Execution.SlippageDecimal())
	}
	if cfg.Scanner.FetchConcurrency != 5 {
		t.Errorf("FetchConcurrency = %d, want 5", cfg.Scanner.FetchConcurrency)
	}
	if len(cfg.Venues.Serum.Markets) != 1 {
		t.Errorf("Serum.Markets = %v", cfg.Venues.Serum.Markets)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SCAN_MIN_LIQUIDITY", "2500")
	t.Setenv("SCAN_INTERVAL", "7s")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Thresholds.MinLiquidity != 2500 {
		t.Errorf("MinLiquidity = %v, want 2500", cfg.Thresholds.MinLiquidity)
	}
	if cfg.Scanner.Interval != 7*time.Second {
		t.Errorf("Interval = %v, want 7s", cfg.Scanner.Interval)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing min liquidity",
			yaml:    "thresholds:\n  min_liquidity: 0\n",
			wantErr: "thresholds.min_liquidity",
		},
		{
			name:    "price change out of range",
			yaml:    "thresholds:\n  price_change_fraction: 1.5\n",
			wantErr: "thresholds.price_change_fraction",
		},
		{
			name:    "unknown short history policy",
			yaml:    "indicators:\n  short_history: maybe\n",
			wantErr: "indicators.short_history",
		},
		{
			name:    "execution without relay",
			yaml:    "execution:\n  enabled: true\n  signer_key: abc\n",
			wantErr: "execution.relay_url",
		},
		{
			name:    "no venues",
			yaml:    "venues:\n  serum:\n    enabled: false\n  raydium:\n    enabled: false\n  orca:\n    enabled: false\n",
			wantErr: "at least one venue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
