// internal/monitor/monitor.go
package monitor

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Outcome - итог работы монитора позиции.
type Outcome string

const (
	OutcomeSold      Outcome = "sold"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeCancelled Outcome = "cancelled"
)

// Config задаёт параметры мониторинга позиции.
type Config struct {
	PriceInterval  time.Duration
	MaxSellRetries int
	Policy         ExitPolicy
}

// Monitor следит за ценой позиции и продаёт её при срабатывании ExitPolicy.
type Monitor struct {
	cfg    Config
	oracle PriceOracle
	seller Seller
	logger *zap.Logger
}

// NewMonitor создаёт монитор позиций.
func NewMonitor(cfg Config, oracle PriceOracle, seller Seller, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		oracle: oracle,
		seller: seller,
		logger: logger.Named("position-monitor"),
	}
}

// Run блокируется до продажи позиции, исчерпания попыток продажи или отмены ctx.
func (m *Monitor) Run(ctx context.Context, pos Position) Outcome {
	logger := m.logger.With(zap.String("mint", pos.Mint.String()))
	reference := pos.Reference
	remaining := m.cfg.MaxSellRetries

	logger.Info("Position monitor started",
		zap.Uint64("amount", pos.Amount),
		zap.String("reference", reference.String()))

	timer := time.NewTimer(m.cfg.PriceInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Position monitor stopped")
			return OutcomeCancelled
		case <-timer.C:
		}
		timer.Reset(m.cfg.PriceInterval)

		current, err := m.oracle.CurrentValue(ctx, pos.Mint)
		if err != nil {
			logger.Debug("Price unavailable", zap.Error(err))
			continue
		}
		if reference.IsZero() {
			reference = current
			logger.Info("Reference price set", zap.String("price", reference.String()))
			continue
		}

		change := ChangePercent(reference, current)
		logger.Debug("Price check",
			zap.String("price", current.String()),
			zap.String("change_pct", change.StringFixed(2)))

		sell, reason := m.cfg.Policy.ShouldSell(reference, current)
		if !sell {
			continue
		}

		logger.Info("Exit condition reached",
			zap.String("reason", string(reason)),
			zap.String("change_pct", change.StringFixed(2)))

		sig, err := m.seller.Sell(ctx, pos)
		if err == nil {
			logger.Info("Position sold",
				zap.String("signature", sig.String()),
				zap.String("change_pct", change.StringFixed(2)))
			return OutcomeSold
		}

		remaining--
		logger.Warn("Sell failed",
			zap.Int("remaining_attempts", remaining),
			zap.Error(err))
		if remaining <= 0 {
			logger.Error("Sell attempts exhausted, position abandoned",
				zap.Uint64("amount", pos.Amount))
			return OutcomeAbandoned
		}
	}
}

// ReferencePrice считает цену входа: потраченный quote на полученные токены.
func ReferencePrice(quoteRaw uint64, quoteDecimals uint8, tokenRaw uint64, tokenDecimals uint8) decimal.Decimal {
	if tokenRaw == 0 {
		return decimal.Zero
	}
	quote := decimal.NewFromBigInt(new(big.Int).SetUint64(quoteRaw), -int32(quoteDecimals))
	tokens := decimal.NewFromBigInt(new(big.Int).SetUint64(tokenRaw), -int32(tokenDecimals))
	return quote.Div(tokens)
}
