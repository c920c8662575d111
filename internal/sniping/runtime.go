// internal/sniping/runtime.go
package sniping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain/solbc"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/monitor"
	"github.com/rovshanmuradov/raydium-sniper/internal/retry"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// ErrQuoteAccountNotFound возвращается, если у кошелька нет токен-аккаунта quote.
var ErrQuoteAccountNotFound = errors.New("quote token account not found")

// Runtime - контекст процесса: все зависимости собираются один раз при старте.
type Runtime struct {
	cfg        *config.Config
	commitment rpc.CommitmentType
	startedAt  time.Time

	wallet       *wallet.Wallet
	quoteAccount solana.PublicKey
	client       blockchain.Client
	subscriber   blockchain.Subscriber

	cache     *TokenCache
	snipeList *SnipeList
	executor  *Executor
	registry  *monitor.Registry

	pools   *PoolListener
	markets *MarketListener
	wallets *WalletListener

	logger *zap.Logger
}

// NewRuntime проверяет ключ, quote токен и токен-аккаунт quote и собирает конвейер.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	commitment, err := cfg.Commitment()
	if err != nil {
		return nil, err
	}
	client := solbc.NewClient(cfg.RPCEndpoint, commitment, logger)
	subscriber := solbc.NewSubscriber(cfg.WebSocketEndpoint, logger)
	return newRuntime(ctx, cfg, client, subscriber, logger)
}

func newRuntime(
	ctx context.Context,
	cfg *config.Config,
	client blockchain.Client,
	subscriber blockchain.Subscriber,
	logger *zap.Logger,
) (*Runtime, error) {
	commitment, err := cfg.Commitment()
	if err != nil {
		return nil, err
	}

	w, err := wallet.NewWallet(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	quoteATA, err := w.GetATA(cfg.Quote.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive quote ATA: %w", err)
	}

	quoteAccount, err := findQuoteAccount(ctx, client, w.PublicKey, cfg.Quote.Mint, quoteATA)
	if err != nil {
		return nil, err
	}

	snipeList, err := NewSnipeList(cfg.UseSnipeList, cfg.SnipeListPath, logger)
	if err != nil {
		return nil, err
	}

	cache := NewTokenCache(w, client, logger)
	executor := NewExecutor(ExecutorConfig{
		Quote:            cfg.Quote,
		QuoteAccount:     quoteAccount,
		ComputeUnitPrice: cfg.ComputeUnitPrice,
		ComputeUnitLimit: cfg.ComputeUnitLimit,
		BuyPolicy:        retry.BuyPolicy,
		SellPolicy:       retry.Policy{Interval: cfg.SellRetryInterval, MaxAttempts: cfg.MaxSellRetries},
	}, client, w, cache, logger)

	rt := &Runtime{
		cfg:          cfg,
		commitment:   commitment,
		startedAt:    time.Now(),
		wallet:       w,
		quoteAccount: quoteAccount,
		client:       client,
		subscriber:   subscriber,
		cache:        cache,
		snipeList:    snipeList,
		executor:     executor,
		logger:       logger.Named("runtime"),
	}

	rt.markets = NewMarketListener(cfg.Quote, commitment, subscriber, cache, logger)
	rt.pools = NewPoolListener(PoolListenerConfig{
		Quote:              cfg.Quote,
		StartedAt:          rt.startedAt,
		CheckMintRenounced: cfg.CheckMintRenounced,
		Commitment:         commitment,
	}, subscriber, client, snipeList, NewMintChecker(client, logger), executor, logger)

	if cfg.AutoSell {
		oracle := monitor.NewDexScreener(cfg.PriceAPIURL, cfg.Quote.Mint, logger)
		positionMonitor := monitor.NewMonitor(monitor.Config{
			PriceInterval:  cfg.PriceCheck,
			MaxSellRetries: cfg.MaxSellRetries,
			Policy:         monitor.NewExitPolicy(cfg.TakeProfit, cfg.StopLoss),
		}, oracle, executor, logger)
		rt.registry = monitor.NewRegistry(positionMonitor, logger)
		rt.wallets = NewWalletListener(w.PublicKey, cfg.Quote, quoteAccount, commitment, subscriber, cache, rt.registry, logger)
	}

	return rt, nil
}

// Run запускает все слушатели и блокируется до отмены ctx.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("Sniper started",
		zap.String("wallet", r.wallet.String()),
		zap.String("quote", r.cfg.Quote.Symbol),
		zap.String("quote_amount", r.cfg.Quote.FormatAmount(r.cfg.Quote.Amount)),
		zap.String("quote_account", r.quoteAccount.String()),
		zap.Bool("check_mint_renounced", r.cfg.CheckMintRenounced),
		zap.Bool("use_snipe_list", r.cfg.UseSnipeList),
		zap.Bool("auto_sell", r.cfg.AutoSell))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.markets.Run(gCtx)
	})
	g.Go(func() error {
		return r.pools.Run(gCtx)
	})
	g.Go(func() error {
		return r.snipeList.Watch(gCtx, r.cfg.SnipeListRefresh)
	})
	if r.wallets != nil {
		g.Go(func() error {
			return r.wallets.Run(gCtx)
		})
	}

	err := g.Wait()
	if r.registry != nil {
		r.registry.Wait()
	}
	r.logger.Info("Sniper stopped", zap.Int("cached_tokens", r.cache.Len()))
	return err
}

// findQuoteAccount ищет токен-аккаунт кошелька для quote mint.
// ATA предпочтительнее: только для него продажа может добавить idempotent create.
func findQuoteAccount(ctx context.Context, client blockchain.Client, owner, mint, ata solana.PublicKey) (solana.PublicKey, error) {
	accounts, err := client.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to load token accounts: %w", err)
	}

	var fallback *solana.PublicKey
	for _, acc := range accounts {
		if !acc.Mint.Equals(mint) {
			continue
		}
		if acc.Address.Equals(ata) {
			return acc.Address, nil
		}
		if fallback == nil {
			address := acc.Address
			fallback = &address
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrQuoteAccountNotFound, mint)
}
