// internal/monitor/policy.go
package monitor

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ExitReason объясняет, почему позиция должна быть продана.
type ExitReason string

const (
	ExitNone       ExitReason = ""
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
)

// ExitPolicy задаёт пороги take-profit и stop-loss в процентах.
type ExitPolicy struct {
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

// NewExitPolicy создаёт политику из процентов конфигурации.
func NewExitPolicy(takeProfit, stopLoss float64) ExitPolicy {
	return ExitPolicy{
		TakeProfit: decimal.NewFromFloat(takeProfit),
		StopLoss:   decimal.NewFromFloat(stopLoss),
	}
}

// ChangePercent возвращает изменение current относительно reference в процентах.
func ChangePercent(reference, current decimal.Decimal) decimal.Decimal {
	if reference.IsZero() {
		return decimal.Zero
	}
	return current.Sub(reference).Div(reference).Mul(hundred)
}

// ShouldSell сообщает, достигнут ли один из порогов.
func (p ExitPolicy) ShouldSell(reference, current decimal.Decimal) (bool, ExitReason) {
	if reference.IsZero() {
		return false, ExitNone
	}
	change := ChangePercent(reference, current)
	if change.GreaterThanOrEqual(p.TakeProfit) {
		return true, ExitTakeProfit
	}
	if change.LessThanOrEqual(p.StopLoss.Neg()) {
		return true, ExitStopLoss
	}
	return false, ExitNone
}
