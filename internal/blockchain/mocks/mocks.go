// internal/blockchain/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// RPC реализует интерфейс blockchain.RPC для тестов сервисов
type RPC struct {
	mock.Mock
}

var _ blockchain.RPC = (*RPC)(nil)

func (m *RPC) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *RPC) GetTokenSupply(ctx context.Context, mint solana.PublicKey) (*blockchain.TokenMint, error) {
	args := m.Called(ctx, mint)
	if v := args.Get(0); v != nil {
		return v.(*blockchain.TokenMint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RPC) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]blockchain.TokenAccountBalance, error) {
	args := m.Called(ctx, owner, mint)
	if v := args.Get(0); v != nil {
		return v.([]blockchain.TokenAccountBalance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RPC) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]blockchain.SignatureInfo, error) {
	args := m.Called(ctx, address, limit)
	if v := args.Get(0); v != nil {
		return v.([]blockchain.SignatureInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RPC) GetTransaction(ctx context.Context, signature solana.Signature) (*blockchain.TransactionRecord, error) {
	args := m.Called(ctx, signature)
	if v := args.Get(0); v != nil {
		return v.(*blockchain.TransactionRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// Quoter реализует интерфейс blockchain.Quoter
type Quoter struct {
	mock.Mock
}

var _ blockchain.Quoter = (*Quoter)(nil)

func (m *Quoter) Quote(ctx context.Context, inputMint, outputMint solana.PublicKey, amountBaseUnits uint64) (*blockchain.Quote, error) {
	args := m.Called(ctx, inputMint, outputMint, amountBaseUnits)
	if v := args.Get(0); v != nil {
		return v.(*blockchain.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}
