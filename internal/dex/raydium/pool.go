// internal/dex/raydium/pool.go
package raydium

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrMarketAuthorityNotFound возвращается, если ни один nonce не дал валидный PDA.
var ErrMarketAuthorityNotFound = errors.New("market authority not found")

// PoolKeys содержит полный набор адресов, нужный для свапа через AMM v4.
type PoolKeys struct {
	ID            solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	LpMint        solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	Version       uint8
	ProgramID     solana.PublicKey
	Authority     solana.PublicKey
	OpenOrders    solana.PublicKey
	TargetOrders  solana.PublicKey
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey
	WithdrawQueue solana.PublicKey
	LpVault       solana.PublicKey

	// OpenBook market
	MarketVersion    uint8
	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
}

// MarketRefs - минимальный набор адресов рынка, который нужен для сборки ключей пула.
type MarketRefs struct {
	Bids       solana.PublicKey
	Asks       solana.PublicKey
	EventQueue solana.PublicKey
}

// RefsFromMarket извлекает MarketRefs из декодированного рынка.
func RefsFromMarket(m *MarketStateV3) MarketRefs {
	return MarketRefs{
		Bids:       m.Bids,
		Asks:       m.Asks,
		EventQueue: m.EventQueue,
	}
}

// AmmAuthority вычисляет PDA authority программы AMM v4.
func AmmAuthority(programID solana.PublicKey) (solana.PublicKey, error) {
	authority, _, err := solana.FindProgramAddress([][]byte{ammAuthoritySeed}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive amm authority: %w", err)
	}
	return authority, nil
}

// MarketAuthority перебирает nonce и возвращает первый валидный vault signer рынка.
func MarketAuthority(marketProgramID, marketID solana.PublicKey) (solana.PublicKey, error) {
	for nonce := 0; nonce < marketAuthorityNonceLimit; nonce++ {
		seedNonce := []byte{byte(nonce), 0, 0, 0, 0, 0, 0, 0}
		authority, err := solana.CreateProgramAddress([][]byte{marketID[:], seedNonce}, marketProgramID)
		if err == nil {
			return authority, nil
		}
	}
	return solana.PublicKey{}, fmt.Errorf("%w: market %s", ErrMarketAuthorityNotFound, marketID)
}

// NewPoolKeys собирает PoolKeys из состояния пула и адресов рынка.
// Вольты рынка берутся из вольтов пула, как это делает SDK снайпера.
func NewPoolKeys(id solana.PublicKey, state *LiquidityStateV4, market MarketRefs) (*PoolKeys, error) {
	authority, err := AmmAuthority(LiquidityProgramV4)
	if err != nil {
		return nil, err
	}
	marketAuthority, err := MarketAuthority(state.MarketProgramID, state.MarketID)
	if err != nil {
		return nil, err
	}

	return &PoolKeys{
		ID:            id,
		BaseMint:      state.BaseMint,
		QuoteMint:     state.QuoteMint,
		LpMint:        state.LpMint,
		BaseDecimals:  uint8(state.BaseDecimal),
		QuoteDecimals: uint8(state.QuoteDecimal),
		Version:       ammV4Version,
		ProgramID:     LiquidityProgramV4,
		Authority:     authority,
		OpenOrders:    state.OpenOrders,
		TargetOrders:  state.TargetOrders,
		BaseVault:     state.BaseVault,
		QuoteVault:    state.QuoteVault,
		WithdrawQueue: state.WithdrawQueue,
		LpVault:       state.LpVault,

		MarketVersion:    openBookVersion,
		MarketProgramID:  state.MarketProgramID,
		MarketID:         state.MarketID,
		MarketAuthority:  marketAuthority,
		MarketBaseVault:  state.BaseVault,
		MarketQuoteVault: state.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}, nil
}
