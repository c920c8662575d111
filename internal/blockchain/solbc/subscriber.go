// internal/blockchain/solbc/subscriber.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
)

// Параметры переподключения WebSocket
const (
	reconnectInitialInterval = 500 * time.Millisecond
	reconnectMaxInterval     = 30 * time.Second
)

// Subscriber подписывается на аккаунты программ через WebSocket и
// переподключается при обрыве соединения.
type Subscriber struct {
	wsURL  string
	logger *zap.Logger
}

// NewSubscriber создаёт подписчика для WebSocket endpoint.
func NewSubscriber(wsURL string, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		wsURL:  wsURL,
		logger: logger.Named("ws-subscriber"),
	}
}

// SubscribeProgram блокируется и доставляет обновления в handler до отмены ctx.
func (s *Subscriber) SubscribeProgram(
	ctx context.Context,
	filter blockchain.ProgramFilter,
	commitment rpc.CommitmentType,
	handler blockchain.UpdateHandler,
) error {
	logger := s.logger.With(zap.String("program", filter.ProgramID.String()))

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = reconnectInitialInterval
	policy.MaxInterval = reconnectMaxInterval

	for {
		received, err := s.listen(ctx, filter, commitment, handler, logger)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			policy.Reset()
		}

		wait := policy.NextBackOff()
		logger.Warn("Subscription dropped, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// listen держит одну сессию подписки. received сообщает, было ли получено хотя бы одно уведомление.
func (s *Subscriber) listen(
	ctx context.Context,
	filter blockchain.ProgramFilter,
	commitment rpc.CommitmentType,
	handler blockchain.UpdateHandler,
	logger *zap.Logger,
) (received bool, err error) {
	client, err := ws.Connect(ctx, s.wsURL)
	if err != nil {
		return false, fmt.Errorf("ws connect: %w", err)
	}
	defer client.Close()

	sub, err := client.ProgramSubscribeWithOpts(
		filter.ProgramID,
		commitment,
		solana.EncodingBase64,
		rpcFilters(filter),
	)
	if err != nil {
		return false, fmt.Errorf("program subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	// Recv не принимает контекст: закрытие соединения разблокирует его с ошибкой.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()

	logger.Info("Subscribed to program accounts")

	for {
		got, err := sub.Recv()
		if err != nil {
			return received, fmt.Errorf("recv: %w", err)
		}
		if got == nil {
			return received, errors.New("subscription closed")
		}
		received = true

		account := got.Value.Account
		if account == nil || account.Data == nil {
			continue
		}
		handler(ctx, blockchain.AccountUpdate{
			Pubkey: got.Value.Pubkey,
			Owner:  account.Owner,
			Data:   account.Data.GetBinary(),
			Slot:   got.Context.Slot,
		})
	}
}

func rpcFilters(filter blockchain.ProgramFilter) []rpc.RPCFilter {
	filters := make([]rpc.RPCFilter, 0, len(filter.Memcmp)+1)
	if filter.DataSize > 0 {
		filters = append(filters, rpc.RPCFilter{DataSize: filter.DataSize})
	}
	for _, m := range filter.Memcmp {
		filters = append(filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: m.Offset,
				Bytes:  solana.Base58(m.Bytes),
			},
		})
	}
	return filters
}

var _ blockchain.Subscriber = (*Subscriber)(nil)
