// internal/sniping/market_listener.go
package sniping

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
)

// MarketListener сохраняет адреса новых рынков OpenBook, чтобы покупка
// по пулу не ждала загрузки рынка.
type MarketListener struct {
	quote      config.QuoteAssetConfig
	commitment rpc.CommitmentType
	sub        blockchain.Subscriber
	cache      *TokenCache
	logger     *zap.Logger
}

// NewMarketListener создаёт слушатель рынков.
func NewMarketListener(quote config.QuoteAssetConfig, commitment rpc.CommitmentType, sub blockchain.Subscriber, cache *TokenCache, logger *zap.Logger) *MarketListener {
	return &MarketListener{
		quote:      quote,
		commitment: commitment,
		sub:        sub,
		cache:      cache,
		logger:     logger.Named("market-listener"),
	}
}

// Filter возвращает фильтр подписки на рынки.
func (l *MarketListener) Filter() blockchain.ProgramFilter {
	quote := l.quote.Mint
	return blockchain.ProgramFilter{
		ProgramID: raydium.OpenBookProgramID,
		DataSize:  raydium.MarketStateV3Size,
		Memcmp: []blockchain.MemcmpFilter{
			{Offset: raydium.MarketQuoteMintOffset, Bytes: quote[:]},
		},
	}
}

// Run блокируется до отмены ctx.
func (l *MarketListener) Run(ctx context.Context) error {
	l.logger.Info("Listening for new markets", zap.String("quote", l.quote.Symbol))
	return l.sub.SubscribeProgram(ctx, l.Filter(), l.commitment, l.Handle)
}

// Handle сохраняет рынок в кеш, если для его базового токена ещё нет записи.
func (l *MarketListener) Handle(_ context.Context, update blockchain.AccountUpdate) {
	market, err := raydium.DecodeMarketState(update.Data)
	if err != nil {
		l.logger.Warn("Failed to decode market state",
			zap.String("market", update.Pubkey.String()),
			zap.Error(err))
		return
	}

	if _, ok := l.cache.Get(market.BaseMint); ok {
		return
	}
	if _, err := l.cache.UpsertFromMarket(market.BaseMint, raydium.RefsFromMarket(market)); err != nil {
		l.logger.Warn("Failed to save market",
			zap.String("market", update.Pubkey.String()),
			zap.String("mint", market.BaseMint.String()),
			zap.Error(err))
	}
}
