// internal/sniping/mint_checker.go
package sniping

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
)

// MintChecker проверяет, отозван ли mint authority у токена.
type MintChecker struct {
	client blockchain.Client
	logger *zap.Logger
}

// NewMintChecker создаёт проверку mint authority.
func NewMintChecker(client blockchain.Client, logger *zap.Logger) *MintChecker {
	return &MintChecker{
		client: client,
		logger: logger.Named("mint-checker"),
	}
}

// IsRenounced возвращает true только если option mint authority равен 0.
// Любая ошибка загрузки или декодирования трактуется как false.
func (m *MintChecker) IsRenounced(ctx context.Context, mint solana.PublicKey) bool {
	data, err := m.client.GetAccountData(ctx, mint)
	if err != nil {
		m.logger.Error("Failed to fetch mint account",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return false
	}

	decoded, err := raydium.DecodeMint(data)
	if err != nil {
		m.logger.Error("Failed to decode mint account",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return false
	}
	return decoded.Renounced()
}
