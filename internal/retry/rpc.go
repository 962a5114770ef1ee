// internal/retry/rpc.go
package retry

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// RPC повторяет сетевые ошибки нижележащего (кэширующего) адаптера.
type RPC struct {
	inner  blockchain.RPC
	policy Policy
	logger *zap.Logger
}

var _ blockchain.RPC = (*RPC)(nil)

// NewRPC создает обертку с политикой повторов.
func NewRPC(inner blockchain.RPC, policy Policy, logger *zap.Logger) *RPC {
	return &RPC{inner: inner, policy: policy, logger: logger.Named("retry")}
}

func (r *RPC) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	return Do(ctx, r.policy, r.logger, "getBalance", func(ctx context.Context) (uint64, error) {
		return r.inner.GetBalance(ctx, address)
	})
}

func (r *RPC) GetTokenSupply(ctx context.Context, mint solana.PublicKey) (*blockchain.TokenMint, error) {
	return Do(ctx, r.policy, r.logger, "getTokenSupply", func(ctx context.Context) (*blockchain.TokenMint, error) {
		return r.inner.GetTokenSupply(ctx, mint)
	})
}

func (r *RPC) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]blockchain.TokenAccountBalance, error) {
	return Do(ctx, r.policy, r.logger, "getTokenAccountsByOwner", func(ctx context.Context) ([]blockchain.TokenAccountBalance, error) {
		return r.inner.GetTokenAccountsByOwner(ctx, owner, mint)
	})
}

func (r *RPC) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]blockchain.SignatureInfo, error) {
	return Do(ctx, r.policy, r.logger, "getSignaturesForAddress", func(ctx context.Context) ([]blockchain.SignatureInfo, error) {
		return r.inner.GetSignaturesForAddress(ctx, address, limit)
	})
}

func (r *RPC) GetTransaction(ctx context.Context, signature solana.Signature) (*blockchain.TransactionRecord, error) {
	return Do(ctx, r.policy, r.logger, "getTransaction", func(ctx context.Context) (*blockchain.TransactionRecord, error) {
		return r.inner.GetTransaction(ctx, signature)
	})
}

// Quoter повторяет сетевые ошибки адаптера котировок.
type Quoter struct {
	inner  blockchain.Quoter
	policy Policy
	logger *zap.Logger
}

var _ blockchain.Quoter = (*Quoter)(nil)

// NewQuoter создает обертку с политикой повторов.
func NewQuoter(inner blockchain.Quoter, policy Policy, logger *zap.Logger) *Quoter {
	return &Quoter{inner: inner, policy: policy, logger: logger.Named("retry")}
}

func (q *Quoter) Quote(ctx context.Context, inputMint, outputMint solana.PublicKey, amountBaseUnits uint64) (*blockchain.Quote, error) {
	return Do(ctx, q.policy, q.logger, "quote", func(ctx context.Context) (*blockchain.Quote, error) {
		return q.inner.Quote(ctx, inputMint, outputMint, amountBaseUnits)
	})
}
