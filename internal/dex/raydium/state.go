// internal/dex/raydium/state.go
package raydium

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// LiquidityStateV4 повторяет раскладку аккаунта пула Raydium AMM v4 (752 байта).
type LiquidityStateV4 struct {
	Status                 uint64
	Nonce                  uint64
	MaxOrder               uint64
	Depth                  uint64
	BaseDecimal            uint64
	QuoteDecimal           uint64
	State                  uint64
	ResetFlag              uint64
	MinSize                uint64
	VolMaxCutRatio         uint64
	AmountWaveRatio        uint64
	BaseLotSize            uint64
	QuoteLotSize           uint64
	MinPriceMultiplier     uint64
	MaxPriceMultiplier     uint64
	SystemDecimalValue     uint64
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
	BaseNeedTakePnl        uint64
	QuoteNeedTakePnl       uint64
	QuoteTotalPnl          uint64
	BaseTotalPnl           uint64
	PoolOpenTime           uint64 // unix seconds
	PunishPcAmount         uint64
	PunishCoinAmount       uint64
	OrderbookToInitTime    uint64

	// u128 поля храним как сырые байты, в расчётах они не участвуют
	SwapBaseInAmount   [16]byte
	SwapQuoteOutAmount [16]byte
	SwapBase2QuoteFee  uint64
	SwapQuoteInAmount  [16]byte
	SwapBaseOutAmount  [16]byte
	SwapQuote2BaseFee  uint64

	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LpMint          solana.PublicKey
	OpenOrders      solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey
	TargetOrders    solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
	Owner           solana.PublicKey

	LpReserve uint64
	Padding   [3]uint64
}

// MarketStateV3 повторяет раскладку рынка OpenBook/Serum v3 (388 байт).
type MarketStateV3 struct {
	Head                   [5]byte
	AccountFlags           uint64
	OwnAddress             solana.PublicKey
	VaultSignerNonce       uint64
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	BaseVault              solana.PublicKey
	BaseDepositsTotal      uint64
	BaseFeesAccrued        uint64
	QuoteVault             solana.PublicKey
	QuoteDepositsTotal     uint64
	QuoteFeesAccrued       uint64
	QuoteDustThreshold     uint64
	RequestQueue           solana.PublicKey
	EventQueue             solana.PublicKey
	Bids                   solana.PublicKey
	Asks                   solana.PublicKey
	BaseLotSize            uint64
	QuoteLotSize           uint64
	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
	Tail                   [7]byte
}

// DecodeLiquidityState декодирует данные аккаунта пула.
func DecodeLiquidityState(data []byte) (*LiquidityStateV4, error) {
	if len(data) < LiquidityStateV4Size {
		return nil, fmt.Errorf("insufficient pool data length: got %d, need %d", len(data), LiquidityStateV4Size)
	}
	var state LiquidityStateV4
	if err := bin.NewBinDecoder(data[:LiquidityStateV4Size]).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode liquidity state: %w", err)
	}
	return &state, nil
}

// DecodeMarketState декодирует данные аккаунта рынка.
func DecodeMarketState(data []byte) (*MarketStateV3, error) {
	if len(data) < MarketStateV3Size {
		return nil, fmt.Errorf("insufficient market data length: got %d, need %d", len(data), MarketStateV3Size)
	}
	var market MarketStateV3
	if err := bin.NewBinDecoder(data[:MarketStateV3Size]).Decode(&market); err != nil {
		return nil, fmt.Errorf("failed to decode market state: %w", err)
	}
	return &market, nil
}

// MintState - SPL mint вместе с исходным значением option для mint authority.
// Декодер token.Mint заполняет MintAuthority только при option == 1.
type MintState struct {
	token.Mint
	AuthorityOption uint32
}

// Renounced возвращает true только при option == 0.
func (m *MintState) Renounced() bool {
	return m.AuthorityOption == 0
}

// DecodeMint декодирует SPL mint.
func DecodeMint(data []byte) (*MintState, error) {
	if len(data) < MintAccountSize {
		return nil, fmt.Errorf("insufficient mint data length: got %d, need %d", len(data), MintAccountSize)
	}
	var mint MintState
	if err := bin.NewBinDecoder(data[:MintAccountSize]).Decode(&mint.Mint); err != nil {
		return nil, fmt.Errorf("failed to decode mint: %w", err)
	}
	mint.AuthorityOption = binary.LittleEndian.Uint32(data[0:4])
	return &mint, nil
}

// DecodeTokenAccount декодирует SPL token account.
func DecodeTokenAccount(data []byte) (*token.Account, error) {
	if len(data) < TokenAccountSize {
		return nil, fmt.Errorf("insufficient token account data length: got %d, need %d", len(data), TokenAccountSize)
	}
	var acc token.Account
	if err := bin.NewBinDecoder(data[:TokenAccountSize]).Decode(&acc); err != nil {
		return nil, fmt.Errorf("failed to decode token account: %w", err)
	}
	return &acc, nil
}
