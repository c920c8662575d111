package sniping

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/monitor"
	"github.com/rovshanmuradov/raydium-sniper/internal/retry"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

var fastPolicy = retry.Policy{Interval: time.Millisecond, MaxAttempts: 3}

type executorFixture struct {
	client   *MockClient
	cache    *TokenCache
	executor *Executor
	wallet   *wallet.Wallet
	state    *raydium.LiquidityStateV4
	poolID   solana.PublicKey
	ref      blockchain.BlockReference
}

// newExecutorFixture собирает исполнителя с рынком уже в кеше.
func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()
	client := new(MockClient)
	cache, w := newTestCache(t, client)

	state := testPoolState(startUnix + 1)
	_, err := cache.UpsertFromMarket(state.BaseMint, raydium.RefsFromMarket(testMarketState(state.BaseMint)))
	require.NoError(t, err)

	executor := NewExecutor(ExecutorConfig{
		Quote:            testQuote(),
		QuoteAccount:     newKey(),
		ComputeUnitPrice: 1000,
		ComputeUnitLimit: 100_000,
		BuyPolicy:        fastPolicy,
		SellPolicy:       fastPolicy,
	}, client, w, cache, zaptest.NewLogger(t))

	return &executorFixture{
		client:   client,
		cache:    cache,
		executor: executor,
		wallet:   w,
		state:    state,
		poolID:   newKey(),
		ref:      blockchain.BlockReference{Blockhash: solana.Hash{1}, LastValidBlockHeight: 100},
	}
}

func requireStage(t *testing.T, err error, stage Stage) {
	t.Helper()
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, stage, stageErr.Stage)
}

func TestExecutorBuy(t *testing.T) {
	f := newExecutorFixture(t)
	sig := solana.Signature{7}

	f.client.On("GetLatestBlockhash", mock.Anything).Return(f.ref, nil).Once()
	f.client.On("SendRawTransaction", mock.Anything, mock.Anything).Return(sig, nil).Once()
	f.client.On("ConfirmTransaction", mock.Anything, sig, f.ref).Return(nil).Once()

	got, err := f.executor.Buy(context.Background(), f.poolID, f.state)
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	record, ok := f.cache.Get(f.state.BaseMint)
	require.True(t, ok)
	require.NotNil(t, record.PoolKeys)
	assert.Equal(t, f.poolID, record.PoolKeys.ID)

	raw := f.client.Calls[1].Arguments.Get(1).([]byte)
	tx, err := solana.TransactionFromBytes(raw)
	require.NoError(t, err)
	// compute price, compute limit, ATA, swap
	assert.Len(t, tx.Message.Instructions, 4)
	assert.Equal(t, f.ref.Blockhash, tx.Message.RecentBlockhash)
	require.NoError(t, tx.VerifySignatures())

	f.client.AssertExpectations(t)
}

func TestExecutorBuyBlockhashFailure(t *testing.T) {
	f := newExecutorFixture(t)
	f.client.On("GetLatestBlockhash", mock.Anything).Return(blockchain.BlockReference{}, errors.New("rpc unavailable"))

	_, err := f.executor.Buy(context.Background(), f.poolID, f.state)
	requireStage(t, err, StageSigning)
	f.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
}

func TestExecutorBuySubmissionExhausted(t *testing.T) {
	f := newExecutorFixture(t)
	f.client.On("GetLatestBlockhash", mock.Anything).Return(f.ref, nil)
	f.client.On("SendRawTransaction", mock.Anything, mock.Anything).
		Return(solana.Signature{}, errors.New("node is behind"))

	_, err := f.executor.Buy(context.Background(), f.poolID, f.state)
	requireStage(t, err, StageSubmission)
	assert.Contains(t, err.Error(), "node is behind")
	f.client.AssertNumberOfCalls(t, "SendRawTransaction", fastPolicy.MaxAttempts)
	f.client.AssertNotCalled(t, "ConfirmTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutorBuyConfirmationFailure(t *testing.T) {
	f := newExecutorFixture(t)
	sig := solana.Signature{9}
	f.client.On("GetLatestBlockhash", mock.Anything).Return(f.ref, nil)
	f.client.On("SendRawTransaction", mock.Anything, mock.Anything).Return(sig, nil)
	f.client.On("ConfirmTransaction", mock.Anything, sig, f.ref).Return(blockchain.ErrBlockhashExpired)

	got, err := f.executor.Buy(context.Background(), f.poolID, f.state)
	requireStage(t, err, StageConfirmation)
	assert.ErrorIs(t, err, blockchain.ErrBlockhashExpired)
	assert.Equal(t, sig, got)
}

func TestExecutorBuyMetadataFailure(t *testing.T) {
	f := newExecutorFixture(t)
	state := testPoolState(startUnix + 1)
	f.client.On("GetAccountData", mock.Anything, state.MarketID).Return(nil, blockchain.ErrAccountNotFound)

	_, err := f.executor.Buy(context.Background(), f.poolID, state)
	requireStage(t, err, StageMetadata)
	assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)
}

// sellFixture готовит пул в кеше и успешную отправку транзакции.
func sellFixture(t *testing.T, balance uint64) (*executorFixture, solana.PublicKey, solana.Signature) {
	t.Helper()
	f := newExecutorFixture(t)
	sig := solana.Signature{3}
	account := newKey()

	_, err := f.cache.UpsertPoolKeys(context.Background(), f.poolID, f.state)
	require.NoError(t, err)

	f.client.On("GetTokenAccountBalance", mock.Anything, account).Return(balance, nil)
	f.client.On("GetLatestBlockhash", mock.Anything).Return(f.ref, nil)
	f.client.On("SendRawTransaction", mock.Anything, mock.Anything).Return(sig, nil)
	f.client.On("ConfirmTransaction", mock.Anything, sig, f.ref).Return(nil)
	return f, account, sig
}

// sentTransaction достаёт транзакцию из вызова SendRawTransaction.
func sentTransaction(t *testing.T, client *MockClient) *solana.Transaction {
	t.Helper()
	for _, call := range client.Calls {
		if call.Method != "SendRawTransaction" {
			continue
		}
		tx, err := solana.TransactionFromBytes(call.Arguments.Get(1).([]byte))
		require.NoError(t, err)
		return tx
	}
	t.Fatal("SendRawTransaction was not called")
	return nil
}

func swapAmountIn(t *testing.T, tx *solana.Transaction) uint64 {
	t.Helper()
	// swap всегда предпоследняя, перед CloseAccount
	swap := tx.Message.Instructions[len(tx.Message.Instructions)-2]
	require.Len(t, swap.Data, 17)
	return binary.LittleEndian.Uint64(swap.Data[1:9])
}

func TestExecutorSell(t *testing.T) {
	f, account, sig := sellFixture(t, 5_000_000)

	got, err := f.executor.Sell(context.Background(), monitor.Position{
		Mint:         f.state.BaseMint,
		TokenAccount: account,
		Amount:       5_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	tx := sentTransaction(t, f.client)
	// compute price, compute limit, swap, close
	assert.Len(t, tx.Message.Instructions, 4)
	assert.Equal(t, uint64(5_000_000), swapAmountIn(t, tx))
	require.NoError(t, tx.VerifySignatures())
}

func TestExecutorSellQuoteATA(t *testing.T) {
	f, account, _ := sellFixture(t, 5_000_000)
	ata, err := f.wallet.GetATA(testQuote().Mint)
	require.NoError(t, err)
	f.executor.cfg.QuoteAccount = ata

	_, err = f.executor.Sell(context.Background(), monitor.Position{
		Mint:         f.state.BaseMint,
		TokenAccount: account,
		Amount:       5_000_000,
	})
	require.NoError(t, err)

	tx := sentTransaction(t, f.client)
	// compute price, compute limit, ATA, swap, close
	require.Len(t, tx.Message.Instructions, 5)
	program, err := tx.Message.Program(tx.Message.Instructions[2].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, program)
}

func TestExecutorSellUsesOnChainBalance(t *testing.T) {
	// позиция открыта на 100, затем пришёл ещё один перевод
	f, account, _ := sellFixture(t, 250)

	_, err := f.executor.Sell(context.Background(), monitor.Position{
		Mint:         f.state.BaseMint,
		TokenAccount: account,
		Amount:       100,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(250), swapAmountIn(t, sentTransaction(t, f.client)))
}

func TestExecutorSellEmptyBalance(t *testing.T) {
	f, account, _ := sellFixture(t, 0)

	_, err := f.executor.Sell(context.Background(), monitor.Position{
		Mint:         f.state.BaseMint,
		TokenAccount: account,
		Amount:       100,
	})
	requireStage(t, err, StageAssembly)
	f.client.AssertNotCalled(t, "SendRawTransaction", mock.Anything, mock.Anything)
}

func TestExecutorSellBalanceFailure(t *testing.T) {
	f := newExecutorFixture(t)
	_, err := f.cache.UpsertPoolKeys(context.Background(), f.poolID, f.state)
	require.NoError(t, err)
	account := newKey()
	f.client.On("GetTokenAccountBalance", mock.Anything, account).Return(uint64(0), errors.New("rpc unavailable"))

	_, err = f.executor.Sell(context.Background(), monitor.Position{Mint: f.state.BaseMint, TokenAccount: account, Amount: 1})
	requireStage(t, err, StageMetadata)
	f.client.AssertNotCalled(t, "GetLatestBlockhash", mock.Anything)
}

func TestExecutorSellUnknownMint(t *testing.T) {
	f := newExecutorFixture(t)

	_, err := f.executor.Sell(context.Background(), monitor.Position{Mint: newKey(), TokenAccount: newKey(), Amount: 1})
	requireStage(t, err, StageMetadata)
	f.client.AssertNotCalled(t, "GetLatestBlockhash", mock.Anything)
}
