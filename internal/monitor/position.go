// internal/monitor/position.go
package monitor

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Position - купленный токен, ожидающий продажи.
type Position struct {
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Amount       uint64 // в минимальных единицах токена
	// Reference - цена входа в единицах quote за токен. Нулевая означает,
	// что опорной будет первая наблюдённая цена.
	Reference decimal.Decimal
}

// PriceOracle возвращает текущую цену токена в единицах quote за токен.
type PriceOracle interface {
	CurrentValue(ctx context.Context, mint solana.PublicKey) (decimal.Decimal, error)
}

// Seller продаёт позицию целиком.
type Seller interface {
	Sell(ctx context.Context, pos Position) (solana.Signature, error)
}
