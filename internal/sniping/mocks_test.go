package sniping

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
	"github.com/rovshanmuradov/raydium-sniper/internal/monitor"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

// MockClient мок blockchain.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	args := m.Called(ctx, pubkey)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockClient) GetLatestBlockhash(ctx context.Context) (blockchain.BlockReference, error) {
	args := m.Called(ctx)
	return args.Get(0).(blockchain.BlockReference), args.Error(1)
}

func (m *MockClient) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockClient) ConfirmTransaction(ctx context.Context, sig solana.Signature, ref blockchain.BlockReference) error {
	args := m.Called(ctx, sig, ref)
	return args.Error(0)
}

func (m *MockClient) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]blockchain.TokenAccount, error) {
	args := m.Called(ctx, owner, mint)
	accounts, _ := args.Get(0).([]blockchain.TokenAccount)
	return accounts, args.Error(1)
}

// fakeSubscriber доставляет заранее заданные обновления и завершается.
type fakeSubscriber struct {
	mu      sync.Mutex
	updates map[solana.PublicKey][]blockchain.AccountUpdate
	filters []blockchain.ProgramFilter
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{updates: make(map[solana.PublicKey][]blockchain.AccountUpdate)}
}

func (s *fakeSubscriber) push(program solana.PublicKey, update blockchain.AccountUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[program] = append(s.updates[program], update)
}

func (s *fakeSubscriber) SubscribeProgram(ctx context.Context, filter blockchain.ProgramFilter, _ rpc.CommitmentType, handler blockchain.UpdateHandler) error {
	s.mu.Lock()
	s.filters = append(s.filters, filter)
	updates := append([]blockchain.AccountUpdate(nil), s.updates[filter.ProgramID]...)
	s.mu.Unlock()

	for _, u := range updates {
		handler(ctx, u)
	}
	return nil
}

type fakeBuyer struct {
	mu    sync.Mutex
	pools []solana.PublicKey
}

func (b *fakeBuyer) Buy(_ context.Context, poolID solana.PublicKey, _ *raydium.LiquidityStateV4) (solana.Signature, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pools = append(b.pools, poolID)
	return solana.Signature{}, nil
}

func (b *fakeBuyer) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pools)
}

type staticChecker bool

func (c staticChecker) IsRenounced(context.Context, solana.PublicKey) bool { return bool(c) }

type fakeSpawner struct {
	mu        sync.Mutex
	positions []monitor.Position
	err       error
}

func (s *fakeSpawner) Spawn(_ context.Context, pos monitor.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.positions = append(s.positions, pos)
	return nil
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewWallet(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)
	return w
}

func testQuote() config.QuoteAssetConfig {
	return config.QuoteAssetConfig{
		Symbol:   "WSOL",
		Mint:     config.WSOLMint,
		Decimals: 9,
		Amount:   10_000_000,
	}
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func testPoolState(openTime uint64) *raydium.LiquidityStateV4 {
	return &raydium.LiquidityStateV4{
		Status:          6,
		BaseDecimal:     6,
		QuoteDecimal:    9,
		PoolOpenTime:    openTime,
		BaseVault:       newKey(),
		QuoteVault:      newKey(),
		BaseMint:        newKey(),
		QuoteMint:       config.WSOLMint,
		LpMint:          newKey(),
		OpenOrders:      newKey(),
		MarketID:        newKey(),
		MarketProgramID: raydium.OpenBookProgramID,
		TargetOrders:    newKey(),
		WithdrawQueue:   newKey(),
		LpVault:         newKey(),
		Owner:           newKey(),
	}
}

func testMarketState(baseMint solana.PublicKey) *raydium.MarketStateV3 {
	return &raydium.MarketStateV3{
		BaseMint:   baseMint,
		QuoteMint:  config.WSOLMint,
		EventQueue: newKey(),
		Bids:       newKey(),
		Asks:       newKey(),
	}
}

// tokenAccountData собирает 165-байтовый SPL токен-аккаунт.
func tokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, raydium.TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[raydium.TokenAccountOwnerOffset:raydium.TokenAccountOwnerOffset+32], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1
	return data
}

// mintData собирает mint-аккаунт с заданным option для mint authority.
func mintData(option uint32, authority solana.PublicKey) []byte {
	data := make([]byte, raydium.MintAccountSize)
	binary.LittleEndian.PutUint32(data[0:4], option)
	copy(data[4:36], authority[:])
	data[44] = 6
	data[45] = 1
	return data
}

func newTestCache(t *testing.T, client blockchain.Client) (*TokenCache, *wallet.Wallet) {
	w := testWallet(t)
	return NewTokenCache(w, client, zaptest.NewLogger(t)), w
}
