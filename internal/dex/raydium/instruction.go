// internal/dex/raydium/instruction.go
package raydium

import (
	"encoding/binary"
	"errors"

	"github.com/gagliardetto/solana-go"
)

const (
	// Размеры данных
	SwapInstructionSize = 17 // 1 (тип) + 8 (amountIn) + 8 (minAmountOut)
)

// SwapFixedInParams описывает свап с фиксированным входом.
type SwapFixedInParams struct {
	Keys            *PoolKeys
	TokenAccountIn  solana.PublicKey
	TokenAccountOut solana.PublicKey
	Owner           solana.PublicKey
	AmountIn        uint64
	MinAmountOut    uint64
}

// EncodeSwapFixedInData сериализует данные инструкции swapBaseIn.
func EncodeSwapFixedInData(amountIn, minAmountOut uint64) []byte {
	data := make([]byte, SwapInstructionSize)
	data[0] = swapBaseInInstruction
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)
	return data
}

// BuildSwapFixedInInstruction строит инструкцию swapBaseIn AMM v4.
// Дополнительных подписантов кроме владельца у инструкции нет.
func BuildSwapFixedInInstruction(params SwapFixedInParams) (solana.Instruction, error) {
	k := params.Keys
	if k == nil {
		return nil, errors.New("missing pool keys")
	}
	if k.ID.IsZero() || k.Authority.IsZero() || k.MarketAuthority.IsZero() {
		return nil, errors.New("incomplete pool keys")
	}

	accounts := solana.AccountMetaSlice{
		// Программа токенов
		solana.Meta(TokenProgramID),
		// Аккаунты AMM
		solana.Meta(k.ID).WRITE(),
		solana.Meta(k.Authority),
		solana.Meta(k.OpenOrders).WRITE(),
		solana.Meta(k.TargetOrders).WRITE(),
		solana.Meta(k.BaseVault).WRITE(),
		solana.Meta(k.QuoteVault).WRITE(),
		// Аккаунты рынка
		solana.Meta(k.MarketProgramID),
		solana.Meta(k.MarketID).WRITE(),
		solana.Meta(k.MarketBids).WRITE(),
		solana.Meta(k.MarketAsks).WRITE(),
		solana.Meta(k.MarketEventQueue).WRITE(),
		solana.Meta(k.MarketBaseVault).WRITE(),
		solana.Meta(k.MarketQuoteVault).WRITE(),
		solana.Meta(k.MarketAuthority),
		// Аккаунты пользователя
		solana.Meta(params.TokenAccountIn).WRITE(),
		solana.Meta(params.TokenAccountOut).WRITE(),
		solana.Meta(params.Owner).SIGNER(),
	}

	return solana.NewInstruction(
		k.ProgramID,
		accounts,
		EncodeSwapFixedInData(params.AmountIn, params.MinAmountOut),
	), nil
}
