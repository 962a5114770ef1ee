// internal/cache/rpc.go
package cache

import (
	"context"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// RPC оборачивает адаптер блокчейна кэшем. Возвращаемые указатели общие
// для всех вызывающих, изменять их нельзя.
type RPC struct {
	inner blockchain.RPC
	cache *Cache
}

var _ blockchain.RPC = (*RPC)(nil)

// NewRPC создает кэширующую обертку над адаптером.
func NewRPC(inner blockchain.RPC, c *Cache) *RPC {
	return &RPC{inner: inner, cache: c}
}

func (r *RPC) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	return Cached(ctx, r.cache, KindBalance, map[string]string{"address": address.String()},
		func(ctx context.Context) (uint64, error) {
			return r.inner.GetBalance(ctx, address)
		})
}

func (r *RPC) GetTokenSupply(ctx context.Context, mint solana.PublicKey) (*blockchain.TokenMint, error) {
	return Cached(ctx, r.cache, KindMint, map[string]string{"mint": mint.String()},
		func(ctx context.Context) (*blockchain.TokenMint, error) {
			return r.inner.GetTokenSupply(ctx, mint)
		})
}

func (r *RPC) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]blockchain.TokenAccountBalance, error) {
	params := map[string]string{"owner": owner.String(), "mint": mint.String()}
	return Cached(ctx, r.cache, KindTokenAccounts, params,
		func(ctx context.Context) ([]blockchain.TokenAccountBalance, error) {
			return r.inner.GetTokenAccountsByOwner(ctx, owner, mint)
		})
}

func (r *RPC) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]blockchain.SignatureInfo, error) {
	params := map[string]string{"address": address.String(), "limit": strconv.Itoa(limit)}
	return Cached(ctx, r.cache, KindSignatures, params,
		func(ctx context.Context) ([]blockchain.SignatureInfo, error) {
			return r.inner.GetSignaturesForAddress(ctx, address, limit)
		})
}

func (r *RPC) GetTransaction(ctx context.Context, signature solana.Signature) (*blockchain.TransactionRecord, error) {
	return Cached(ctx, r.cache, KindTransaction, map[string]string{"signature": signature.String()},
		func(ctx context.Context) (*blockchain.TransactionRecord, error) {
			return r.inner.GetTransaction(ctx, signature)
		})
}

// Quoter оборачивает адаптер котировок кэшем.
type Quoter struct {
	inner blockchain.Quoter
	cache *Cache
}

var _ blockchain.Quoter = (*Quoter)(nil)

// NewQuoter создает кэширующую обертку над адаптером котировок.
func NewQuoter(inner blockchain.Quoter, c *Cache) *Quoter {
	return &Quoter{inner: inner, cache: c}
}

func (q *Quoter) Quote(ctx context.Context, inputMint, outputMint solana.PublicKey, amountBaseUnits uint64) (*blockchain.Quote, error) {
	params := map[string]string{
		"input":  inputMint.String(),
		"output": outputMint.String(),
		"amount": strconv.FormatUint(amountBaseUnits, 10),
	}
	return Cached(ctx, q.cache, KindQuote, params,
		func(ctx context.Context) (*blockchain.Quote, error) {
			return q.inner.Quote(ctx, inputMint, outputMint, amountBaseUnits)
		})
}
