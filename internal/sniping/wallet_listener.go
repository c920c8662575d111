// internal/sniping/wallet_listener.go
package sniping

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/monitor"
)

// PositionSpawner запускает мониторинг позиции.
type PositionSpawner interface {
	Spawn(ctx context.Context, pos monitor.Position) error
}

// WalletListener следит за токен-аккаунтами кошелька и запускает
// мониторинг для каждого пополненного аккаунта.
type WalletListener struct {
	owner        solana.PublicKey
	quote        config.QuoteAssetConfig
	quoteAccount solana.PublicKey
	commitment   rpc.CommitmentType
	sub          blockchain.Subscriber
	cache        *TokenCache
	spawner      PositionSpawner
	logger       *zap.Logger
}

// NewWalletListener создаёт слушатель токен-аккаунтов кошелька.
func NewWalletListener(
	owner solana.PublicKey,
	quote config.QuoteAssetConfig,
	quoteAccount solana.PublicKey,
	commitment rpc.CommitmentType,
	sub blockchain.Subscriber,
	cache *TokenCache,
	spawner PositionSpawner,
	logger *zap.Logger,
) *WalletListener {
	return &WalletListener{
		owner:        owner,
		quote:        quote,
		quoteAccount: quoteAccount,
		commitment:   commitment,
		sub:          sub,
		cache:        cache,
		spawner:      spawner,
		logger:       logger.Named("wallet-listener"),
	}
}

// Filter возвращает фильтр подписки на токен-аккаунты кошелька.
func (l *WalletListener) Filter() blockchain.ProgramFilter {
	owner := l.owner
	return blockchain.ProgramFilter{
		ProgramID: raydium.TokenProgramID,
		DataSize:  raydium.TokenAccountSize,
		Memcmp: []blockchain.MemcmpFilter{
			{Offset: raydium.TokenAccountOwnerOffset, Bytes: owner[:]},
		},
	}
}

// Run блокируется до отмены ctx.
func (l *WalletListener) Run(ctx context.Context) error {
	l.logger.Info("Listening for wallet token accounts", zap.String("wallet", l.owner.String()))
	return l.sub.SubscribeProgram(ctx, l.Filter(), l.commitment, l.Handle)
}

// Handle запускает монитор для обновлённого токен-аккаунта.
func (l *WalletListener) Handle(ctx context.Context, update blockchain.AccountUpdate) {
	if update.Pubkey.Equals(l.quoteAccount) {
		return
	}

	acc, err := raydium.DecodeTokenAccount(update.Data)
	if err != nil {
		l.logger.Warn("Failed to decode token account",
			zap.String("account", update.Pubkey.String()),
			zap.Error(err))
		return
	}
	if acc.Amount == 0 || acc.Mint.Equals(l.quote.Mint) {
		return
	}

	pos := monitor.Position{
		Mint:         acc.Mint,
		TokenAccount: update.Pubkey,
		Amount:       acc.Amount,
	}
	if record, ok := l.cache.Get(acc.Mint); ok && record.PoolKeys != nil {
		pos.Reference = monitor.ReferencePrice(l.quote.Amount, l.quote.Decimals, acc.Amount, record.PoolKeys.BaseDecimals)
	}

	err = l.spawner.Spawn(ctx, pos)
	switch {
	case errors.Is(err, monitor.ErrMonitorActive):
		l.logger.Debug("Position already monitored", zap.String("mint", acc.Mint.String()))
	case err != nil:
		l.logger.Error("Failed to start position monitor",
			zap.String("mint", acc.Mint.String()),
			zap.Error(err))
	default:
		l.logger.Info("Position monitor started",
			zap.String("mint", acc.Mint.String()),
			zap.String("account", update.Pubkey.String()),
			zap.Uint64("amount", acc.Amount))
	}
}
