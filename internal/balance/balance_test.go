package balance

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/blockchain/mocks"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestNativeBalanceScalesLamports(t *testing.T) {
	rpc := new(mocks.RPC)
	addr := solana.NewWallet().PublicKey()
	rpc.On("GetBalance", mock.Anything, addr).Return(uint64(1_234_500_000), nil)

	svc := NewService(rpc, zap.NewNop())
	got, err := svc.NativeBalance(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "1.2345", got.String())
}

func TestOwnerTokenBalanceSumsAccounts(t *testing.T) {
	rpc := new(mocks.RPC)
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	rpc.On("GetTokenAccountsByOwner", mock.Anything, owner, mint).Return([]blockchain.TokenAccountBalance{
		{Account: solana.NewWallet().PublicKey(), UIAmount: amount("12.5")},
		{Account: solana.NewWallet().PublicKey(), UIAmount: amount("7.5")},
	}, nil)

	svc := NewService(rpc, zap.NewNop())
	got, err := svc.OwnerTokenBalance(context.Background(), owner, mint)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(got), "got %s", got)
}

func TestOwnerTokenBalanceMissingAmountIsZero(t *testing.T) {
	rpc := new(mocks.RPC)
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	rpc.On("GetTokenAccountsByOwner", mock.Anything, owner, mint).Return([]blockchain.TokenAccountBalance{
		{Account: solana.NewWallet().PublicKey(), UIAmount: amount("3")},
		{Account: solana.NewWallet().PublicKey()},
	}, nil)

	svc := NewService(rpc, zap.NewNop())
	got, err := svc.OwnerTokenBalance(context.Background(), owner, mint)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(got))
}

func TestOwnerTokenBalanceErrors(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	t.Run("no accounts is not found", func(t *testing.T) {
		rpc := new(mocks.RPC)
		rpc.On("GetTokenAccountsByOwner", mock.Anything, owner, mint).Return([]blockchain.TokenAccountBalance{}, nil)

		_, err := NewService(rpc, zap.NewNop()).OwnerTokenBalance(context.Background(), owner, mint)
		assert.ErrorIs(t, err, blockchain.ErrNotFound)
	})

	t.Run("adapter failure propagates", func(t *testing.T) {
		rpc := new(mocks.RPC)
		rpc.On("GetTokenAccountsByOwner", mock.Anything, owner, mint).
			Return(nil, blockchain.NetworkError("getTokenAccountsByOwner", errors.New("down")))

		_, err := NewService(rpc, zap.NewNop()).OwnerTokenBalance(context.Background(), owner, mint)
		assert.ErrorIs(t, err, blockchain.ErrNetwork)
	})
}

func TestSnapshotKeepsNativeWhenTokenUnavailable(t *testing.T) {
	rpc := new(mocks.RPC)
	addr := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	rpc.On("GetBalance", mock.Anything, addr).Return(uint64(500_000_000), nil)
	rpc.On("GetTokenAccountsByOwner", mock.Anything, addr, mint).
		Return(nil, blockchain.ProtocolError("getTokenAccountsByOwner", errors.New("invalid mint")))

	snap, err := NewService(rpc, zap.NewNop()).Snapshot(context.Background(), addr, mint)
	require.NoError(t, err)
	assert.Equal(t, "0.5", snap.Native.String())
	assert.False(t, snap.Token.Valid)
}
