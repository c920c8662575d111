// internal/monitor/dexscreener.go
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rovshanmuradov/raydium-sniper/internal/config"
)

const (
	rateLimit   = 300 // requests per minute
	solanaChain = "solana"
	raydiumDex  = "raydium"
)

// ErrPriceUnavailable возвращается, если подходящая пара не найдена.
var ErrPriceUnavailable = errors.New("price unavailable")

// DexScreenerResponse представляет основную структуру ответа
type DexScreenerResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []PairInfo `json:"pairs"`
}

// PairInfo содержит информацию о паре
type PairInfo struct {
	ChainId     string        `json:"chainId"`
	DexId       string        `json:"dexId"`
	PairAddress string        `json:"pairAddress"`
	BaseToken   TokenInfo     `json:"baseToken"`
	QuoteToken  TokenInfo     `json:"quoteToken"`
	PriceNative string        `json:"priceNative"`
	Liquidity   LiquidityInfo `json:"liquidity"`
}

// TokenInfo содержит информацию о токене
type TokenInfo struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

// LiquidityInfo содержит информацию о ликвидности
type LiquidityInfo struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// DexScreener - PriceOracle поверх DexScreener API.
// Цена берётся из priceNative пары Raydium с настроенным quote токеном.
type DexScreener struct {
	baseURL   string
	quoteMint solana.PublicKey
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewDexScreener создает новый экземпляр сервиса
func NewDexScreener(baseURL string, quoteMint solana.PublicKey, logger *zap.Logger) *DexScreener {
	if baseURL == "" {
		baseURL = config.DefaultPriceAPIURL
	}
	return &DexScreener{
		baseURL:   strings.TrimRight(baseURL, "/"),
		quoteMint: quoteMint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/rateLimit), 1),
		logger:  logger.Named("dexscreener"),
	}
}

// CurrentValue возвращает цену токена в единицах quote.
func (s *DexScreener) CurrentValue(ctx context.Context, mint solana.PublicKey) (decimal.Decimal, error) {
	pair, err := s.GetPairByToken(ctx, mint)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(pair.PriceNative)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid priceNative %q: %w", pair.PriceNative, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price for %s", ErrPriceUnavailable, mint)
	}
	return price, nil
}

// GetPairByToken ищет Raydium пару токена с quote mint с наибольшей ликвидностью
func (s *DexScreener) GetPairByToken(ctx context.Context, mint solana.PublicKey) (*PairInfo, error) {
	url := fmt.Sprintf("%s/tokens/%s", s.baseURL, mint.String())

	response, err := s.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get token pairs: %w", err)
	}

	var bestPair *PairInfo
	maxLiquidity := -1.0
	quote := s.quoteMint.String()

	for i := range response.Pairs {
		pair := &response.Pairs[i]
		if pair.DexId != raydiumDex || pair.ChainId != solanaChain {
			continue
		}
		if pair.BaseToken.Address != mint.String() || pair.QuoteToken.Address != quote {
			continue
		}
		if pair.Liquidity.USD > maxLiquidity {
			maxLiquidity = pair.Liquidity.USD
			bestPair = pair
		}
	}

	if bestPair == nil {
		return nil, fmt.Errorf("%w: no Raydium pair for token %s", ErrPriceUnavailable, mint)
	}
	return bestPair, nil
}

// doRequest выполняет HTTP запрос с учетом rate limit
func (s *DexScreener) doRequest(ctx context.Context, url string) (*DexScreenerResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var response DexScreenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &response, nil
}

var _ PriceOracle = (*DexScreener)(nil)
