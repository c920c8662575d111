package sniping

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/wallet"
)

func testConfig() *config.Config {
	return &config.Config{
		RPCEndpoint:       "https://rpc.example.com",
		WebSocketEndpoint: "wss://rpc.example.com",
		PrivateKey:        solana.NewWallet().PrivateKey.String(),
		CommitmentLevel:   "confirmed",
		ComputeUnitPrice:  config.DefaultComputeUnitPrice,
		ComputeUnitLimit:  config.DefaultComputeUnitLimit,
		MaxSellRetries:    3,
		Quote:             testQuote(),
	}
}

func TestFindQuoteAccount(t *testing.T) {
	owner := newKey()
	quote := testQuote()
	ata := newKey()
	other := newKey()

	tests := []struct {
		name     string
		accounts []blockchain.TokenAccount
		want     solana.PublicKey
	}{
		{
			name:     "only ATA",
			accounts: []blockchain.TokenAccount{{Address: ata, Mint: quote.Mint, Amount: 1}},
			want:     ata,
		},
		{
			name: "ATA preferred over earlier account",
			accounts: []blockchain.TokenAccount{
				{Address: other, Mint: quote.Mint, Amount: 5},
				{Address: ata, Mint: quote.Mint, Amount: 1},
			},
			want: ata,
		},
		{
			name: "falls back to first matching account",
			accounts: []blockchain.TokenAccount{
				{Address: newKey(), Mint: newKey(), Amount: 1},
				{Address: other, Mint: quote.Mint, Amount: 1},
			},
			want: other,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			client.On("GetTokenAccountsByOwner", mock.Anything, owner, quote.Mint).Return(tt.accounts, nil).Once()

			got, err := findQuoteAccount(context.Background(), client, owner, quote.Mint, ata)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindQuoteAccountMissing(t *testing.T) {
	owner := newKey()
	quote := testQuote()

	client := new(MockClient)
	client.On("GetTokenAccountsByOwner", mock.Anything, owner, quote.Mint).Return(nil, nil).Once()

	_, err := findQuoteAccount(context.Background(), client, owner, quote.Mint, newKey())
	assert.ErrorIs(t, err, ErrQuoteAccountNotFound)
}

func TestNewRuntimePrefersQuoteATA(t *testing.T) {
	cfg := testConfig()
	w, err := wallet.NewWallet(cfg.PrivateKey)
	require.NoError(t, err)
	ata, err := w.GetATA(cfg.Quote.Mint)
	require.NoError(t, err)

	client := new(MockClient)
	client.On("GetTokenAccountsByOwner", mock.Anything, w.PublicKey, cfg.Quote.Mint).
		Return([]blockchain.TokenAccount{
			{Address: newKey(), Mint: cfg.Quote.Mint},
			{Address: ata, Mint: cfg.Quote.Mint},
		}, nil)

	rt, err := newRuntime(context.Background(), cfg, client, newFakeSubscriber(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, ata, rt.quoteAccount)
	assert.Equal(t, ata, rt.executor.cfg.QuoteAccount)
}

func TestNewRuntimeRejectsMissingQuoteAccount(t *testing.T) {
	client := new(MockClient)
	client.On("GetTokenAccountsByOwner", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("rpc unavailable"))

	_, err := newRuntime(context.Background(), testConfig(), client, newFakeSubscriber(), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewRuntimeRejectsBadKey(t *testing.T) {
	cfg := testConfig()
	cfg.PrivateKey = "not-a-key"

	_, err := newRuntime(context.Background(), cfg, new(MockClient), newFakeSubscriber(), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRuntimeRun(t *testing.T) {
	cfg := testConfig()
	cfg.AutoSell = true

	client := new(MockClient)
	client.On("GetTokenAccountsByOwner", mock.Anything, mock.Anything, cfg.Quote.Mint).
		Return([]blockchain.TokenAccount{{Address: newKey(), Mint: cfg.Quote.Mint}}, nil)

	sub := newFakeSubscriber()
	rt, err := newRuntime(context.Background(), cfg, client, sub, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, rt.wallets)

	// fakeSubscriber возвращается сразу, поэтому Run завершается
	require.NoError(t, rt.Run(context.Background()))

	programs := make(map[solana.PublicKey]bool)
	for _, f := range sub.filters {
		programs[f.ProgramID] = true
	}
	assert.Len(t, programs, 3)
}
