// internal/dex/raydium/constants.go
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	// Используем MPK для краткости, так как это константы
	LiquidityProgramV4       = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	OpenBookProgramID        = solana.MPK("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
	TokenProgramID           = solana.TokenProgramID
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
	SystemProgramID          = solana.SystemProgramID
	WrappedSolMint           = solana.MPK("So11111111111111111111111111111111111111112")
)

// PDA seeds
var ammAuthoritySeed = []byte("amm authority")

// marketAuthorityNonceLimit ограничивает перебор nonce для authority рынка.
const marketAuthorityNonceLimit = 100

// Размеры аккаунтов
const (
	LiquidityStateV4Size = 752
	MarketStateV3Size    = 388
	MintAccountSize      = 82
	TokenAccountSize     = 165
)

// Смещения полей, используемые в memcmp фильтрах подписок
const (
	LiquidityPoolOpenTimeOffset = 224
	LiquidityBaseMintOffset     = 400
	LiquidityQuoteMintOffset    = 432
	LiquidityMarketIDOffset     = 528
	MarketBaseMintOffset        = 53
	MarketQuoteMintOffset       = 85
	TokenAccountOwnerOffset     = 32
)

// Инструкции AMM v4
const (
	swapBaseInInstruction uint8 = 9
	ammV4Version          uint8 = 4
	openBookVersion       uint8 = 3
)
