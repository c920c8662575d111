// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Определение ошибок
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrBlockhashExpired  = errors.New("blockhash expired before confirmation")
	ErrTransactionFailed = errors.New("transaction failed on-chain")
)

// BlockReference - blockhash вместе с высотой блока, после которой он недействителен.
type BlockReference struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// AccountUpdate - одно уведомление подписки на аккаунты программы.
type AccountUpdate struct {
	Pubkey solana.PublicKey
	Owner  solana.PublicKey
	Data   []byte
	Slot   uint64
}

// ProgramFilter описывает подписку на аккаунты программы.
type ProgramFilter struct {
	ProgramID solana.PublicKey
	DataSize  uint64
	// Memcmp фильтры: смещение -> ожидаемые байты
	Memcmp []MemcmpFilter
}

// MemcmpFilter сравнивает байты данных аккаунта по смещению.
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}

// UpdateHandler обрабатывает уведомление подписки. Не должен блокировать надолго.
type UpdateHandler func(ctx context.Context, update AccountUpdate)

// TokenAccount - токен-аккаунт кошелька.
type TokenAccount struct {
	Address solana.PublicKey
	Mint    solana.PublicKey
	Amount  uint64
}

// Client определяет общий интерфейс для взаимодействия с блокчейном.
type Client interface {
	// Получить данные аккаунта. Если аккаунт отсутствует, возвращает ErrAccountNotFound.
	GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error)
	// Получить последний blockhash с высотой истечения.
	GetLatestBlockhash(ctx context.Context) (BlockReference, error)
	// Отправить подписанную сериализованную транзакцию.
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	// Ожидание подтверждения транзакции до истечения blockhash.
	ConfirmTransaction(ctx context.Context, signature solana.Signature, ref BlockReference) error
	// Получить баланс токенного аккаунта в минимальных единицах.
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	// Получить токен-аккаунты владельца для mint.
	GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]TokenAccount, error)
}

// Subscriber доставляет обновления аккаунтов программы до отмены контекста.
type Subscriber interface {
	SubscribeProgram(ctx context.Context, filter ProgramFilter, commitment rpc.CommitmentType, handler UpdateHandler) error
}
