// internal/sniping/executor.go
package sniping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/monitor"
	"github.com/rovshanmuradov/raydium-sniper/internal/retry"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// ExecutorConfig задаёт параметры сборки и отправки транзакций.
type ExecutorConfig struct {
	Quote            config.QuoteAssetConfig
	QuoteAccount     solana.PublicKey
	ComputeUnitPrice uint64
	ComputeUnitLimit uint32
	BuyPolicy        retry.Policy
	SellPolicy       retry.Policy
}

// Executor собирает, подписывает и отправляет сделки покупки и продажи.
type Executor struct {
	cfg    ExecutorConfig
	client blockchain.Client
	wallet *wallet.Wallet
	cache  *TokenCache
	logger *zap.Logger
}

// NewExecutor создаёт исполнителя сделок.
func NewExecutor(cfg ExecutorConfig, client blockchain.Client, w *wallet.Wallet, cache *TokenCache, logger *zap.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		client: client,
		wallet: w,
		cache:  cache,
		logger: logger.Named("executor"),
	}
}

// Buy покупает базовый токен пула на настроенную сумму quote.
// Ненулевая ошибка всегда имеет тип *StageError.
func (e *Executor) Buy(ctx context.Context, poolID solana.PublicKey, state *raydium.LiquidityStateV4) (solana.Signature, error) {
	logger := e.logger.With(
		zap.String("pool", poolID.String()),
		zap.String("mint", state.BaseMint.String()))

	record, err := e.cache.UpsertPoolKeys(ctx, poolID, state)
	if err != nil {
		return solana.Signature{}, stageErr(StageMetadata, err)
	}

	swap, err := raydium.BuildSwapFixedInInstruction(raydium.SwapFixedInParams{
		Keys:            record.PoolKeys,
		TokenAccountIn:  e.cfg.QuoteAccount,
		TokenAccountOut: record.Address,
		Owner:           e.wallet.PublicKey,
		AmountIn:        e.cfg.Quote.Amount,
		MinAmountOut:    0,
	})
	if err != nil {
		return solana.Signature{}, stageErr(StageAssembly, err)
	}

	instructions := append(e.computeBudget(),
		wallet.CreateAssociatedTokenAccountIdempotentInstruction(e.wallet.PublicKey, record.Address, e.wallet.PublicKey, state.BaseMint),
		swap,
	)

	logger.Info("Sending buy transaction",
		zap.String("amount_in", e.cfg.Quote.FormatAmount(e.cfg.Quote.Amount)),
		zap.String("quote", e.cfg.Quote.Symbol))

	sig, err := e.execute(ctx, instructions, e.cfg.BuyPolicy, logger)
	if err != nil {
		return sig, err
	}

	logger.Info("Buy confirmed",
		zap.String("signature", sig.String()),
		zap.String("explorer", "https://solscan.io/tx/"+sig.String()))
	return sig, nil
}

// Sell продаёт весь баланс позиции в quote и закрывает токен-аккаунт.
func (e *Executor) Sell(ctx context.Context, pos monitor.Position) (solana.Signature, error) {
	logger := e.logger.With(zap.String("mint", pos.Mint.String()))

	record, ok := e.cache.Get(pos.Mint)
	if !ok || record.PoolKeys == nil {
		return solana.Signature{}, stageErr(StageMetadata, fmt.Errorf("no pool keys for mint %s", pos.Mint))
	}

	// CloseAccount требует нулевого остатка, поэтому продаём фактический баланс.
	amount, err := e.client.GetTokenAccountBalance(ctx, pos.TokenAccount)
	if err != nil {
		return solana.Signature{}, stageErr(StageMetadata, fmt.Errorf("failed to get position balance: %w", err))
	}
	if amount == 0 {
		return solana.Signature{}, stageErr(StageAssembly, errors.New("empty position"))
	}
	if amount != pos.Amount {
		logger.Debug("Position balance differs from tracked amount",
			zap.Uint64("tracked", pos.Amount),
			zap.Uint64("on_chain", amount))
	}

	swap, err := raydium.BuildSwapFixedInInstruction(raydium.SwapFixedInParams{
		Keys:            record.PoolKeys,
		TokenAccountIn:  pos.TokenAccount,
		TokenAccountOut: e.cfg.QuoteAccount,
		Owner:           e.wallet.PublicKey,
		AmountIn:        amount,
		MinAmountOut:    0,
	})
	if err != nil {
		return solana.Signature{}, stageErr(StageAssembly, err)
	}

	closeAccount, err := token.NewCloseAccountInstruction(
		pos.TokenAccount,
		e.wallet.PublicKey,
		e.wallet.PublicKey,
		[]solana.PublicKey{},
	).ValidateAndBuild()
	if err != nil {
		return solana.Signature{}, stageErr(StageAssembly, err)
	}

	quoteATA, err := e.wallet.GetATA(e.cfg.Quote.Mint)
	if err != nil {
		return solana.Signature{}, stageErr(StageAssembly, err)
	}

	instructions := e.computeBudget()
	// idempotent create допустим только для ATA; прочие quote-аккаунты уже существуют
	if e.cfg.QuoteAccount.Equals(quoteATA) {
		instructions = append(instructions,
			wallet.CreateAssociatedTokenAccountIdempotentInstruction(e.wallet.PublicKey, quoteATA, e.wallet.PublicKey, e.cfg.Quote.Mint))
	}
	instructions = append(instructions, swap, closeAccount)

	logger.Info("Sending sell transaction", zap.Uint64("amount", amount))

	sig, err := e.execute(ctx, instructions, e.cfg.SellPolicy, logger)
	if err != nil {
		return sig, err
	}

	logger.Info("Sell confirmed",
		zap.String("signature", sig.String()),
		zap.String("explorer", "https://solscan.io/tx/"+sig.String()))
	return sig, nil
}

func (e *Executor) computeBudget() []solana.Instruction {
	return []solana.Instruction{
		computebudget.NewSetComputeUnitPriceInstructionBuilder().
			SetMicroLamports(e.cfg.ComputeUnitPrice).
			Build(),
		computebudget.NewSetComputeUnitLimitInstructionBuilder().
			SetUnits(e.cfg.ComputeUnitLimit).
			Build(),
	}
}

// execute подписывает транзакцию, отправляет её с повторами и ждёт подтверждения.
func (e *Executor) execute(ctx context.Context, instructions []solana.Instruction, policy retry.Policy, logger *zap.Logger) (solana.Signature, error) {
	ref, err := e.client.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, stageErr(StageSigning, fmt.Errorf("failed to get latest blockhash: %w", err))
	}

	tx, err := solana.NewTransaction(instructions, ref.Blockhash, solana.TransactionPayer(e.wallet.PublicKey))
	if err != nil {
		return solana.Signature{}, stageErr(StageSigning, fmt.Errorf("failed to create transaction: %w", err))
	}
	if err := e.wallet.SignTransaction(tx); err != nil {
		return solana.Signature{}, stageErr(StageSigning, fmt.Errorf("failed to sign transaction: %w", err))
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, stageErr(StageSigning, fmt.Errorf("failed to serialize transaction: %w", err))
	}

	sig, err := retry.Do(ctx, policy, func(ctx context.Context) (solana.Signature, error) {
		return e.client.SendRawTransaction(ctx, raw)
	}, func(attempt int, err error, next time.Duration) {
		logger.Debug("Send attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err))
	})
	if err != nil {
		return solana.Signature{}, stageErr(StageSubmission, err)
	}

	logger.Debug("Transaction sent", zap.String("signature", sig.String()))

	if err := e.client.ConfirmTransaction(ctx, sig, ref); err != nil {
		return sig, stageErr(StageConfirmation, err)
	}
	return sig, nil
}

var _ monitor.Seller = (*Executor)(nil)
