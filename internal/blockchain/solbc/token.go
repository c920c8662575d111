// internal/blockchain/solbc/token.go
package solbc

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
)

const tokenAccountSize = 165

func decodeTokenAmount(data []byte) (blockchain.TokenAccount, error) {
	if len(data) < tokenAccountSize {
		return blockchain.TokenAccount{}, fmt.Errorf("token account too short: %d bytes", len(data))
	}
	var acc token.Account
	if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
		return blockchain.TokenAccount{}, fmt.Errorf("decode token account: %w", err)
	}
	return blockchain.TokenAccount{
		Mint:   acc.Mint,
		Amount: acc.Amount,
	}, nil
}
