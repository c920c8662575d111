// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// ErrUnsupportedQuoteMint is returned for any quote_mint other than WSOL or USDC.
var ErrUnsupportedQuoteMint = errors.New("unsupported quote mint")

var (
	WSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDCMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

const (
	DefaultCommitment          = "confirmed"
	DefaultComputeUnitPrice    = 421197
	DefaultComputeUnitLimit    = 101337
	DefaultMaxSellRetries      = 5
	DefaultSellRetryIntervalMS = 100
	DefaultPriceCheckMS        = 1000
	DefaultSnipeListRefreshMS  = 30000
	DefaultPriceAPIURL         = "https://api.dexscreener.com/latest/dex"
	DefaultSnipeListPath       = "configs/snipe-list.txt"
)

// QuoteAssetConfig describes the asset purchases are denominated in.
// Amounts are raw units (already shifted by Decimals).
type QuoteAssetConfig struct {
	Symbol      string
	Mint        solana.PublicKey
	Decimals    uint8
	Amount      uint64
	MinPoolSize uint64
}

// Config holds application settings loaded from the config file and SNIPER_* env.
type Config struct {
	RPCEndpoint       string `mapstructure:"rpc_endpoint"`
	WebSocketEndpoint string `mapstructure:"websocket_endpoint"`
	PrivateKey        string `mapstructure:"private_key"`
	CommitmentLevel   string `mapstructure:"commitment_level"`

	QuoteMint   string `mapstructure:"quote_mint"`
	QuoteAmount string `mapstructure:"quote_amount"`
	MinPoolSize string `mapstructure:"min_pool_size"`

	CheckMintRenounced bool   `mapstructure:"check_if_mint_is_renounced"`
	UseSnipeList       bool   `mapstructure:"use_snipe_list"`
	SnipeListPath      string `mapstructure:"snipe_list_path"`
	SnipeListRefreshMS int    `mapstructure:"snipe_list_refresh_interval"`

	AutoSell            bool    `mapstructure:"auto_sell"`
	MaxSellRetries      int     `mapstructure:"max_sell_retries"`
	SellRetryIntervalMS int     `mapstructure:"sell_retry_interval"`
	TakeProfit          float64 `mapstructure:"take_profit"`
	StopLoss            float64 `mapstructure:"stop_loss"`
	PriceCheckMS        int     `mapstructure:"price_check_interval"`
	PriceAPIURL         string  `mapstructure:"price_api_url"`

	ComputeUnitPrice uint64 `mapstructure:"compute_unit_price"`
	ComputeUnitLimit uint32 `mapstructure:"compute_unit_limit"`

	DebugLogging  bool   `mapstructure:"debug_logging"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSize    int    `mapstructure:"log_max_size"`
	LogMaxAge     int    `mapstructure:"log_max_age"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogCompress   bool   `mapstructure:"log_compress"`

	SnipeListRefresh  time.Duration    `mapstructure:"-"`
	SellRetryInterval time.Duration    `mapstructure:"-"`
	PriceCheck        time.Duration    `mapstructure:"-"`
	Quote             QuoteAssetConfig `mapstructure:"-"`
}

// Load reads configuration from path, applies SNIPER_* environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("commitment_level", DefaultCommitment)
	v.SetDefault("quote_mint", "WSOL")
	v.SetDefault("min_pool_size", "0")
	v.SetDefault("snipe_list_path", DefaultSnipeListPath)
	v.SetDefault("snipe_list_refresh_interval", DefaultSnipeListRefreshMS)
	v.SetDefault("max_sell_retries", DefaultMaxSellRetries)
	v.SetDefault("sell_retry_interval", DefaultSellRetryIntervalMS)
	v.SetDefault("price_check_interval", DefaultPriceCheckMS)
	v.SetDefault("price_api_url", DefaultPriceAPIURL)
	v.SetDefault("compute_unit_price", DefaultComputeUnitPrice)
	v.SetDefault("compute_unit_limit", DefaultComputeUnitLimit)
	v.SetDefault("log_file", "sniper.log")
	v.SetDefault("log_max_size", 100)
	v.SetDefault("log_max_age", 7)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_compress", true)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	// AutomaticEnv only affects Get*, so secrets are read back explicitly.
	if key := v.GetString("private_key"); key != "" {
		cfg.PrivateKey = key
	}

	cfg.SnipeListRefresh = time.Duration(cfg.SnipeListRefreshMS) * time.Millisecond
	cfg.SellRetryInterval = time.Duration(cfg.SellRetryIntervalMS) * time.Millisecond
	cfg.PriceCheck = time.Duration(cfg.PriceCheckMS) * time.Millisecond

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	quote, err := ResolveQuote(cfg.QuoteMint, cfg.QuoteAmount, cfg.MinPoolSize)
	if err != nil {
		return nil, err
	}
	cfg.Quote = quote

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RPCEndpoint == "" {
		return errors.New("rpc_endpoint is required")
	}
	if err := validateURL(c.RPCEndpoint, "http"); err != nil {
		return fmt.Errorf("rpc_endpoint: %w", err)
	}
	if c.WebSocketEndpoint == "" {
		return errors.New("websocket_endpoint is required")
	}
	if err := validateURL(c.WebSocketEndpoint, "ws"); err != nil {
		return fmt.Errorf("websocket_endpoint: %w", err)
	}
	if c.PrivateKey == "" {
		return errors.New("private_key is required")
	}
	if _, err := c.Commitment(); err != nil {
		return err
	}
	if c.QuoteAmount == "" {
		return errors.New("quote_amount is required")
	}
	if c.UseSnipeList && c.SnipeListPath == "" {
		return errors.New("snipe_list_path is required when use_snipe_list is set")
	}
	if c.AutoSell {
		if c.MaxSellRetries <= 0 {
			return errors.New("invalid max_sell_retries")
		}
		if c.TakeProfit <= 0 {
			return errors.New("take_profit must be positive")
		}
		if c.StopLoss <= 0 || c.StopLoss > 100 {
			return errors.New("stop_loss must be in (0, 100]")
		}
		if c.PriceCheck <= 0 {
			return errors.New("invalid price_check_interval")
		}
		if c.SellRetryInterval <= 0 {
			return errors.New("invalid sell_retry_interval")
		}
	}
	if c.ComputeUnitLimit == 0 {
		return errors.New("invalid compute_unit_limit")
	}
	return nil
}

// Commitment maps commitment_level onto the rpc commitment type.
func (c *Config) Commitment() (rpc.CommitmentType, error) {
	switch strings.ToLower(c.CommitmentLevel) {
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "confirmed":
		return rpc.CommitmentConfirmed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	default:
		return "", fmt.Errorf("invalid commitment_level %q", c.CommitmentLevel)
	}
}

// ResolveQuote builds the QuoteAssetConfig for a WSOL or USDC quote.
func ResolveQuote(symbol, amount, minPoolSize string) (QuoteAssetConfig, error) {
	var q QuoteAssetConfig
	switch strings.ToUpper(symbol) {
	case "WSOL":
		q = QuoteAssetConfig{Symbol: "WSOL", Mint: WSOLMint, Decimals: 9}
	case "USDC":
		q = QuoteAssetConfig{Symbol: "USDC", Mint: USDCMint, Decimals: 6}
	default:
		return QuoteAssetConfig{}, fmt.Errorf("%w %q", ErrUnsupportedQuoteMint, symbol)
	}

	raw, err := toRaw(amount, q.Decimals)
	if err != nil {
		return QuoteAssetConfig{}, fmt.Errorf("quote_amount: %w", err)
	}
	if raw == 0 {
		return QuoteAssetConfig{}, errors.New("quote_amount must be positive")
	}
	q.Amount = raw

	if minPoolSize != "" {
		if q.MinPoolSize, err = toRaw(minPoolSize, q.Decimals); err != nil {
			return QuoteAssetConfig{}, fmt.Errorf("min_pool_size: %w", err)
		}
	}
	return q, nil
}

// FormatAmount renders a raw quote amount in UI units.
func (q QuoteAssetConfig) FormatAmount(raw uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(q.Decimals)).String()
}

func toRaw(value string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", value)
	}
	return d.Shift(int32(decimals)).Floor().BigInt().Uint64(), nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}
