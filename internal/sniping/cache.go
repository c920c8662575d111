// internal/sniping/cache.go
package sniping

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/blockchain"
	"github.com/rovshanmuradov/raydium-sniper/internal/dex/raydium"
)

// ATAResolver вычисляет ассоциированный токен-аккаунт кошелька для mint.
type ATAResolver interface {
	GetATA(mint solana.PublicKey) (solana.PublicKey, error)
}

// TokenAccount - запись кеша для одного mint.
type TokenAccount struct {
	Mint     solana.PublicKey
	Address  solana.PublicKey // ATA кошелька
	Market   *raydium.MarketRefs
	PoolKeys *raydium.PoolKeys
}

func (t *TokenAccount) clone() TokenAccount {
	c := *t
	if t.Market != nil {
		m := *t.Market
		c.Market = &m
	}
	if t.PoolKeys != nil {
		k := *t.PoolKeys
		c.PoolKeys = &k
	}
	return c
}

// TokenCache хранит не более одной записи на mint. Записи не удаляются.
type TokenCache struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*TokenAccount

	atas   ATAResolver
	client blockchain.Client
	logger *zap.Logger
}

// NewTokenCache создаёт пустой кеш.
func NewTokenCache(atas ATAResolver, client blockchain.Client, logger *zap.Logger) *TokenCache {
	return &TokenCache{
		accounts: make(map[solana.PublicKey]*TokenAccount),
		atas:     atas,
		client:   client,
		logger:   logger.Named("token-cache"),
	}
}

// Get возвращает копию записи для mint.
func (c *TokenCache) Get(mint solana.PublicKey) (TokenAccount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.accounts[mint]
	if !ok {
		return TokenAccount{}, false
	}
	return rec.clone(), true
}

// Len возвращает число записей.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.accounts)
}

// UpsertFromMarket создаёт запись с адресами рынка, если для mint её ещё нет.
// Существующая запись не перезаписывается.
func (c *TokenCache) UpsertFromMarket(mint solana.PublicKey, refs raydium.MarketRefs) (TokenAccount, error) {
	ata, err := c.atas.GetATA(mint)
	if err != nil {
		return TokenAccount{}, fmt.Errorf("derive ATA for %s: %w", mint, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.accounts[mint]; ok {
		return rec.clone(), nil
	}
	rec := &TokenAccount{Mint: mint, Address: ata, Market: &refs}
	c.accounts[mint] = rec
	c.logger.Debug("Token account saved from market", zap.String("mint", mint.String()))
	return rec.clone(), nil
}

// UpsertPoolKeys дополняет запись ключами пула. Если рынок ещё не встречался,
// его данные загружаются синхронно без удержания блокировки.
func (c *TokenCache) UpsertPoolKeys(ctx context.Context, poolID solana.PublicKey, state *raydium.LiquidityStateV4) (TokenAccount, error) {
	mint := state.BaseMint

	c.mu.Lock()
	var refs *raydium.MarketRefs
	if rec, ok := c.accounts[mint]; ok && rec.Market != nil {
		m := *rec.Market
		refs = &m
	}
	c.mu.Unlock()

	if refs == nil {
		fetched, err := c.fetchMarket(ctx, state.MarketID)
		if err != nil {
			return TokenAccount{}, err
		}
		refs = &fetched
	}

	keys, err := raydium.NewPoolKeys(poolID, state, *refs)
	if err != nil {
		return TokenAccount{}, fmt.Errorf("build pool keys: %w", err)
	}

	ata, err := c.atas.GetATA(mint)
	if err != nil {
		return TokenAccount{}, fmt.Errorf("derive ATA for %s: %w", mint, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.accounts[mint]
	if !ok {
		rec = &TokenAccount{Mint: mint, Address: ata, Market: refs}
		c.accounts[mint] = rec
	} else if rec.Market == nil {
		rec.Market = refs
	}
	rec.PoolKeys = keys
	return rec.clone(), nil
}

func (c *TokenCache) fetchMarket(ctx context.Context, marketID solana.PublicKey) (raydium.MarketRefs, error) {
	data, err := c.client.GetAccountData(ctx, marketID)
	if err != nil {
		return raydium.MarketRefs{}, fmt.Errorf("fetch market %s: %w", marketID, err)
	}
	market, err := raydium.DecodeMarketState(data)
	if err != nil {
		return raydium.MarketRefs{}, fmt.Errorf("market %s: %w", marketID, err)
	}
	return raydium.RefsFromMarket(market), nil
}
