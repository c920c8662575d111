// internal/sniping/pool_listener.go
package sniping

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
)

// Buyer покупает базовый токен обнаруженного пула.
type Buyer interface {
	Buy(ctx context.Context, poolID solana.PublicKey, state *raydium.LiquidityStateV4) (solana.Signature, error)
}

// BuyFilter решает, разрешена ли покупка токена.
type BuyFilter interface {
	ShouldBuy(mint string) bool
}

// RenounceChecker проверяет, отозван ли mint authority.
type RenounceChecker interface {
	IsRenounced(ctx context.Context, mint solana.PublicKey) bool
}

// PoolListenerConfig задаёт правила отбора пулов.
type PoolListenerConfig struct {
	Quote              config.QuoteAssetConfig
	StartedAt          time.Time
	CheckMintRenounced bool
	Commitment         rpc.CommitmentType
}

// PoolListener отслеживает новые пулы Raydium AMM v4 с настроенным quote токеном.
type PoolListener struct {
	cfg     PoolListenerConfig
	sub     blockchain.Subscriber
	client  blockchain.Client
	filter  BuyFilter
	checker RenounceChecker
	buyer   Buyer
	logger  *zap.Logger

	wg sync.WaitGroup
}

// NewPoolListener создаёт слушатель пулов.
func NewPoolListener(
	cfg PoolListenerConfig,
	sub blockchain.Subscriber,
	client blockchain.Client,
	filter BuyFilter,
	checker RenounceChecker,
	buyer Buyer,
	logger *zap.Logger,
) *PoolListener {
	return &PoolListener{
		cfg:     cfg,
		sub:     sub,
		client:  client,
		filter:  filter,
		checker: checker,
		buyer:   buyer,
		logger:  logger.Named("pool-listener"),
	}
}

// Filter возвращает фильтр подписки на пулы.
func (l *PoolListener) Filter() blockchain.ProgramFilter {
	quote := l.cfg.Quote.Mint
	return blockchain.ProgramFilter{
		ProgramID: raydium.LiquidityProgramV4,
		DataSize:  raydium.LiquidityStateV4Size,
		Memcmp: []blockchain.MemcmpFilter{
			{Offset: raydium.LiquidityQuoteMintOffset, Bytes: quote[:]},
		},
	}
}

// Run подписывается на пулы и обрабатывает каждое обновление в отдельной горутине.
func (l *PoolListener) Run(ctx context.Context) error {
	defer l.wg.Wait()

	l.logger.Info("Listening for new pools",
		zap.String("quote", l.cfg.Quote.Symbol),
		zap.Time("started_at", l.cfg.StartedAt))

	return l.sub.SubscribeProgram(ctx, l.Filter(), l.cfg.Commitment,
		func(ctx context.Context, update blockchain.AccountUpdate) {
			l.wg.Add(1)
			go func() {
				defer l.wg.Done()
				l.Handle(ctx, update)
			}()
		})
}

// Handle проверяет пул и при прохождении всех проверок покупает токен.
// Возвращает true, если была предпринята покупка.
func (l *PoolListener) Handle(ctx context.Context, update blockchain.AccountUpdate) bool {
	logger := l.logger.With(zap.String("pool", update.Pubkey.String()))

	state, err := raydium.DecodeLiquidityState(update.Data)
	if err != nil {
		logger.Warn("Failed to decode pool state", zap.Error(err))
		return false
	}

	if int64(state.PoolOpenTime) <= l.cfg.StartedAt.Unix() {
		return false
	}

	mint := state.BaseMint
	logger = logger.With(zap.String("mint", mint.String()))
	logger.Info("New pool detected", zap.Uint64("open_time", state.PoolOpenTime))

	if !l.filter.ShouldBuy(mint.String()) {
		logger.Debug("Skipping buy: token is not in snipe list")
		return false
	}

	if l.cfg.Quote.MinPoolSize > 0 {
		size, err := l.client.GetTokenAccountBalance(ctx, state.QuoteVault)
		if err != nil {
			logger.Warn("Skipping buy: failed to read pool size", zap.Error(err))
			return false
		}
		if size < l.cfg.Quote.MinPoolSize {
			logger.Debug("Skipping buy: pool size below minimum",
				zap.String("pool_size", l.cfg.Quote.FormatAmount(size)),
				zap.String("min_pool_size", l.cfg.Quote.FormatAmount(l.cfg.Quote.MinPoolSize)))
			return false
		}
	}

	if l.cfg.CheckMintRenounced && !l.checker.IsRenounced(ctx, mint) {
		logger.Debug("Skipping buy: mint authority is not renounced")
		return false
	}

	sig, err := l.buyer.Buy(ctx, update.Pubkey, state)
	if err != nil {
		logger.Error("Buy failed", zap.Error(err))
		return true
	}
	logger.Debug("Buy finished", zap.String("signature", sig.String()))
	return true
}
