// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
)

const defaultConfirmPollInterval = 500 * time.Millisecond

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc          *rpc.Client
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, commitment rpc.CommitmentType, logger *zap.Logger) *Client {
	return &Client{
		rpc:          rpc.New(rpcURL),
		commitment:   commitment,
		pollInterval: defaultConfirmPollInterval,
		logger:       logger.Named("solbc-client"),
	}
}

// GetAccountData получает данные аккаунта в base64 кодировке.
func (c *Client) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, pubkey)
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	if result == nil || result.Value == nil || result.Value.Data == nil {
		return nil, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, pubkey)
	}
	return result.Value.Data.GetBinary(), nil
}

// GetLatestBlockhash получает последний blockhash вместе с LastValidBlockHeight.
func (c *Client) GetLatestBlockhash(ctx context.Context) (blockchain.BlockReference, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return blockchain.BlockReference{}, err
	}
	if result == nil || result.Value == nil {
		return blockchain.BlockReference{}, errors.New("empty latest blockhash response")
	}
	return blockchain.BlockReference{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// SendRawTransaction отправляет сериализованную транзакцию без preflight.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		c.logger.Debug("SendRawTransaction error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// ConfirmTransaction ожидает подтверждения транзакции (с простым polling‑механизмом).
// Ожидание прекращается, когда высота блока превышает LastValidBlockHeight.
func (c *Client) ConfirmTransaction(ctx context.Context, signature solana.Signature, ref blockchain.BlockReference) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		statuses, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			c.logger.Warn("Error getting signature statuses", zap.Error(err))
			continue
		}
		if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", blockchain.ErrTransactionFailed, status.Err)
			}
			if CommitmentReached(status.ConfirmationStatus, c.commitment) {
				return nil
			}
		}

		height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
		if err != nil {
			c.logger.Warn("Error getting block height", zap.Error(err))
			continue
		}
		if height > ref.LastValidBlockHeight {
			return blockchain.ErrBlockhashExpired
		}
	}
}

// GetTokenAccountBalance получает баланс токенного аккаунта
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, account)
		}
		return 0, err
	}
	if result == nil || result.Value == nil {
		return 0, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, account)
	}
	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", result.Value.Amount, err)
	}
	return amount, nil
}

// GetTokenAccountsByOwner возвращает токен-аккаунты владельца для указанного mint.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]blockchain.TokenAccount, error) {
	result, err := c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: mint.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		},
	)
	if err != nil {
		c.logger.Error("GetTokenAccountsByOwner error",
			zap.String("owner", owner.String()),
			zap.String("mint", mint.String()),
			zap.Error(err))
		return nil, err
	}

	accounts := make([]blockchain.TokenAccount, 0, len(result.Value))
	for _, keyed := range result.Value {
		if keyed == nil || keyed.Account.Data == nil {
			continue
		}
		acc, err := decodeTokenAmount(keyed.Account.Data.GetBinary())
		if err != nil {
			c.logger.Debug("skip undecodable token account",
				zap.String("account", keyed.Pubkey.String()),
				zap.Error(err))
			continue
		}
		acc.Address = keyed.Pubkey
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// CommitmentReached сообщает, достигнут ли требуемый уровень подтверждения.
func CommitmentReached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	return commitmentRank(string(status)) >= commitmentRank(string(want)) && status != ""
}

func commitmentRank(level string) int {
	switch level {
	case string(rpc.CommitmentProcessed):
		return 1
	case string(rpc.CommitmentConfirmed):
		return 2
	case string(rpc.CommitmentFinalized):
		return 3
	default:
		return 0
	}
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
