// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Indicators IndicatorsConfig `mapstructure:"indicators"`
	Venues     VenuesConfig     `mapstructure:"venues"`
	History    HistoryConfig    `mapstructure:"history"`
	Execution  ExecutionConfig  `mapstructure:"execution"`
	Reporting  ReportingConfig  `mapstructure:"reporting"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Health     HealthConfig     `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ThresholdsConfig holds the detection thresholds.
type ThresholdsConfig struct {
	MinLiquidity        float64 `mapstructure:"min_liquidity"`
	PriceChangeFraction float64 `mapstructure:"price_change_fraction"`
}

// MinLiquidityDecimal returns the liquidity floor as decimal.Decimal.
func (c ThresholdsConfig) MinLiquidityDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinLiquidity)
}

// PriceChangeFractionDecimal returns the change trigger as decimal.Decimal.
func (c ThresholdsConfig) PriceChangeFractionDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.PriceChangeFraction)
}

// ScannerConfig controls the scan loop.
type ScannerConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	CacheExpiration  time.Duration `mapstructure:"cache_expiration"`
	HistoryCapacity  int           `mapstructure:"history_capacity"`
	FetchConcurrency int           `mapstructure:"fetch_concurrency"`
	TradeAmount      float64       `mapstructure:"trade_amount"`
	FocusToken       string        `mapstructure:"focus_token"`
	VenueTimeout     time.Duration `mapstructure:"venue_timeout"`
}

// TradeAmountDecimal returns the default trade size as decimal.Decimal.
func (c ScannerConfig) TradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.TradeAmount)
}

// IndicatorsConfig holds technical indicator settings.
type IndicatorsConfig struct {
	RSIPeriod    int     `mapstructure:"rsi_period"`
	WMAPeriod    int     `mapstructure:"wma_period"`
	RSIBuyBelow  float64 `mapstructure:"rsi_buy_below"`
	ShortHistory string  `mapstructure:"short_history"`
}

// RSIBuyBelowDecimal returns the oversold threshold as decimal.Decimal.
func (c IndicatorsConfig) RSIBuyBelowDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.RSIBuyBelow)
}

// VenueConfig describes one market data source.
type VenueConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	Path              string        `mapstructure:"path"`
	Markets           []string      `mapstructure:"markets"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// VenuesConfig holds the per-venue settings.
type VenuesConfig struct {
	Serum   VenueConfig `mapstructure:"serum"`
	Raydium VenueConfig `mapstructure:"raydium"`
	Orca    VenueConfig `mapstructure:"orca"`
}

// HistoryConfig holds the historical price API settings.
type HistoryConfig struct {
	BaseURL           string            `mapstructure:"base_url"`
	VsCurrency        string            `mapstructure:"vs_currency"`
	Days              int               `mapstructure:"days"`
	RequestsPerMinute int               `mapstructure:"requests_per_minute"`
	APIKey            string            `mapstructure:"api_key"`
	TokenIDs          map[string]string `mapstructure:"token_ids"`
}

// ExecutionConfig holds trade dispatch settings.
type ExecutionConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Slippage           float64       `mapstructure:"slippage"`
	MaxBalanceFraction float64       `mapstructure:"max_balance_fraction"`
	ConfirmAttempts    int           `mapstructure:"confirm_attempts"`
	ConfirmInterval    time.Duration `mapstructure:"confirm_interval"`
	RelayURL           string        `mapstructure:"relay_url"`
	SignerKey          string        `mapstructure:"signer_key"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// SlippageDecimal returns the slippage fraction as decimal.Decimal.
func (c ExecutionConfig) SlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Slippage)
}

// MaxBalanceFractionDecimal returns the wallet cap fraction as decimal.Decimal.
func (c ExecutionConfig) MaxBalanceFractionDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxBalanceFraction)
}

// ReportingConfig selects where opportunities are published.
type ReportingConfig struct {
	Console  bool           `mapstructure:"console"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// RedisConfig holds the pub/sub reporter settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// TelegramConfig holds the chat notifier settings.
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "SCAN_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SCAN_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SCAN_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("thresholds.min_liquidity", "SCAN_MIN_LIQUIDITY", "MIN_LIQUIDITY")
	v.BindEnv("thresholds.price_change_fraction", "SCAN_PRICE_CHANGE", "PRICE_CHANGE")

	v.BindEnv("scanner.interval", "SCAN_INTERVAL")
	v.BindEnv("scanner.cache_expiration", "SCAN_CACHE_EXPIRATION")

	v.BindEnv("history.api_key", "SCAN_HISTORY_API_KEY", "COINGECKO_API_KEY")

	v.BindEnv("execution.enabled", "SCAN_EXECUTION_ENABLED")
	v.BindEnv("execution.relay_url", "SCAN_RELAY_URL", "RELAY_URL")
	v.BindEnv("execution.signer_key", "SCAN_SIGNER_KEY", "SIGNER_PRIVATE_KEY")

	v.BindEnv("reporting.redis.addr", "SCAN_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("reporting.redis.password", "SCAN_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("reporting.telegram.token", "SCAN_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("reporting.telegram.chat_id", "SCAN_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	v.BindEnv("telemetry.enabled", "SCAN_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SCAN_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SCAN_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dex-scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("thresholds.min_liquidity", 1000)
	v.SetDefault("thresholds.price_change_fraction", 0.05)

	v.SetDefault("scanner.interval", "10s")
	v.SetDefault("scanner.cache_expiration", "5m")
	v.SetDefault("scanner.history_capacity", 10)
	v.SetDefault("scanner.fetch_concurrency", 5)
	v.SetDefault("scanner.trade_amount", 1)
	v.SetDefault("scanner.focus_token", "SOL")
	v.SetDefault("scanner.venue_timeout", "15s")

	v.SetDefault("indicators.rsi_period", 14)
	v.SetDefault("indicators.wma_period", 14)
	v.SetDefault("indicators.rsi_buy_below", 30)
	v.SetDefault("indicators.short_history", "partial")

	v.SetDefault("venues.serum.enabled", true)
	v.SetDefault("venues.serum.base_url", "https://serum-api.bonfida.com")
	v.SetDefault("venues.serum.path", "orderbook")
	v.SetDefault("venues.serum.markets", []string{"9wFFe2ecmB1nPuU5H9xqg6d9eM6NLpS2eSCJih1t8TgP"})
	v.SetDefault("venues.serum.requests_per_minute", 120)
	v.SetDefault("venues.serum.timeout", "10s")

	v.SetDefault("venues.raydium.enabled", true)
	v.SetDefault("venues.raydium.base_url", "https://api.raydium.io")
	v.SetDefault("venues.raydium.path", "pairs")
	v.SetDefault("venues.raydium.requests_per_minute", 60)
	v.SetDefault("venues.raydium.timeout", "10s")

	v.SetDefault("venues.orca.enabled", true)
	v.SetDefault("venues.orca.base_url", "https://api.orca.so")
	v.SetDefault("venues.orca.path", "v1/pairs")
	v.SetDefault("venues.orca.requests_per_minute", 60)
	v.SetDefault("venues.orca.timeout", "10s")

	v.SetDefault("history.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("history.vs_currency", "usd")
	v.SetDefault("history.days", 30)
	v.SetDefault("history.requests_per_minute", 30)

	v.SetDefault("execution.enabled", false)
	v.SetDefault("execution.slippage", 0.01)
	v.SetDefault("execution.max_balance_fraction", 0.1)
	v.SetDefault("execution.confirm_attempts", 10)
	v.SetDefault("execution.confirm_interval", "5s")
	v.SetDefault("execution.timeout", "15s")

	v.SetDefault("reporting.console", true)
	v.SetDefault("reporting.redis.enabled", false)
	v.SetDefault("reporting.redis.addr", "localhost:6379")
	v.SetDefault("reporting.redis.channel", "dex-scanner:opportunities")
	v.SetDefault("reporting.telegram.enabled", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "dex-scanner")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Thresholds.MinLiquidity <= 0 {
		return fmt.Errorf("thresholds.min_liquidity must be positive")
	}
	if c.Thresholds.PriceChangeFraction <= 0 || c.Thresholds.PriceChangeFraction >= 1 {
		return fmt.Errorf("thresholds.price_change_fraction must be in (0, 1), got %v", c.Thresholds.PriceChangeFraction)
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("scanner.interval must be positive")
	}
	if c.Scanner.CacheExpiration <= 0 {
		return fmt.Errorf("scanner.cache_expiration must be positive")
	}
	if c.Scanner.HistoryCapacity < 2 {
		return fmt.Errorf("scanner.history_capacity must be at least 2, got %d", c.Scanner.HistoryCapacity)
	}
	if c.Scanner.FetchConcurrency < 1 {
		return fmt.Errorf("scanner.fetch_concurrency must be at least 1")
	}
	if c.Scanner.TradeAmount <= 0 {
		return fmt.Errorf("scanner.trade_amount must be positive")
	}
	if c.Indicators.RSIPeriod < 2 {
		return fmt.Errorf("indicators.rsi_period must be at least 2")
	}
	if c.Indicators.WMAPeriod < 1 {
		return fmt.Errorf("indicators.wma_period must be at least 1")
	}
	if c.Indicators.RSIBuyBelow <= 0 || c.Indicators.RSIBuyBelow >= 100 {
		return fmt.Errorf("indicators.rsi_buy_below must be in (0, 100)")
	}
	switch c.Indicators.ShortHistory {
	case "partial", "strict":
	default:
		return fmt.Errorf("indicators.short_history must be partial or strict, got %q", c.Indicators.ShortHistory)
	}

	venues := map[string]VenueConfig{
		"serum":   c.Venues.Serum,
		"raydium": c.Venues.Raydium,
		"orca":    c.Venues.Orca,
	}
	enabled := 0
	for name, vc := range venues {
		if !vc.Enabled {
			continue
		}
		enabled++
		if vc.BaseURL == "" {
			return fmt.Errorf("venues.%s.base_url is required when enabled", name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one venue must be enabled")
	}
	if c.Venues.Serum.Enabled && len(c.Venues.Serum.Markets) == 0 {
		return fmt.Errorf("venues.serum.markets cannot be empty when enabled")
	}

	if c.History.BaseURL == "" {
		return fmt.Errorf("history.base_url is required")
	}
	if c.History.Days < 1 {
		return fmt.Errorf("history.days must be at least 1")
	}

	if c.Execution.Slippage < 0 || c.Execution.Slippage >= 1 {
		return fmt.Errorf("execution.slippage must be in [0, 1), got %v", c.Execution.Slippage)
	}
	if c.Execution.MaxBalanceFraction <= 0 || c.Execution.MaxBalanceFraction > 1 {
		return fmt.Errorf("execution.max_balance_fraction must be in (0, 1]")
	}
	if c.Execution.Enabled {
		if c.Execution.RelayURL == "" {
			return fmt.Errorf("execution.relay_url is required when execution is enabled")
		}
		if c.Execution.SignerKey == "" {
			return fmt.Errorf("execution.signer_key is required when execution is enabled")
		}
		if c.Execution.ConfirmAttempts < 1 {
			return fmt.Errorf("execution.confirm_attempts must be at least 1")
		}
	}

	if c.Reporting.Redis.Enabled && c.Reporting.Redis.Addr == "" {
		return fmt.Errorf("reporting.redis.addr is required when redis reporting is enabled")
	}
	if c.Reporting.Telegram.Enabled && (c.Reporting.Telegram.Token == "" || c.Reporting.Telegram.ChatID == 0) {
		return fmt.Errorf("reporting.telegram.token and chat_id are required when telegram reporting is enabled")
	}

	return nil
}
