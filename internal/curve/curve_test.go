package curve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/blockchain/mocks"
)

func sizes(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestSampleCurveKeepsGaps(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	rpc := new(mocks.RPC)
	rpc.On("GetTokenSupply", mock.Anything, mint).Return(&blockchain.TokenMint{Mint: mint, Decimals: 6}, nil)

	quoter := new(mocks.Quoter)
	quoter.On("Quote", mock.Anything, mint, blockchain.NativeMint, uint64(1_000_000)).
		Return(&blockchain.Quote{OutAmount: 2_000_000, RouteHops: 1}, nil)
	quoter.On("Quote", mock.Anything, mint, blockchain.NativeMint, uint64(10_000_000)).
		Return(nil, blockchain.ProtocolError("quote", errors.New("no route")))
	quoter.On("Quote", mock.Anything, mint, blockchain.NativeMint, uint64(100_000_000)).
		Return(&blockchain.Quote{OutAmount: 150_000_000, RouteHops: 2}, nil)

	sampler := NewSampler(rpc, quoter, Config{}, zap.NewNop(), nil)
	samples, err := sampler.SampleCurve(context.Background(), mint, sizes(1, 10, 100))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "1", samples[0].Size.String())
	require.True(t, samples[0].PricePerUnit.Valid)
	assert.True(t, decimal.RequireFromString("0.002").Equal(samples[0].PricePerUnit.Decimal))

	assert.Equal(t, "10", samples[1].Size.String())
	assert.False(t, samples[1].PricePerUnit.Valid)
	assert.False(t, samples[1].OutNative.Valid)

	assert.Equal(t, "100", samples[2].Size.String())
	require.True(t, samples[2].PricePerUnit.Valid)
	assert.True(t, decimal.RequireFromString("0.0015").Equal(samples[2].PricePerUnit.Decimal))
	assert.True(t, decimal.RequireFromString("0.15").Equal(samples[2].OutNative.Decimal))
	assert.Equal(t, 2, samples[2].RouteHops)
}

func TestSampleCurveAllFailuresStillFullLength(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	rpc := new(mocks.RPC)
	rpc.On("GetTokenSupply", mock.Anything, mint).Return(&blockchain.TokenMint{Decimals: 0}, nil)
	quoter := new(mocks.Quoter)
	quoter.On("Quote", mock.Anything, mint, blockchain.NativeMint, mock.Anything).
		Return(nil, blockchain.NetworkError("quote", errors.New("down")))

	samples, err := NewSampler(rpc, quoter, Config{}, zap.NewNop(), nil).
		SampleCurve(context.Background(), mint, sizes(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, samples, 4)
	for i, s := range samples {
		assert.Equal(t, int64(i+1), s.Size.IntPart())
		assert.False(t, s.PricePerUnit.Valid)
	}
}

func TestSampleCurveDefaultLadder(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	rpc := new(mocks.RPC)
	rpc.On("GetTokenSupply", mock.Anything, mint).Return(&blockchain.TokenMint{Decimals: 2}, nil)
	quoter := new(mocks.Quoter)
	quoter.On("Quote", mock.Anything, mint, blockchain.NativeMint, mock.Anything).
		Return(&blockchain.Quote{OutAmount: 1, RouteHops: 1}, nil)

	samples, err := NewSampler(rpc, quoter, Config{}, zap.NewNop(), nil).SampleCurve(context.Background(), mint, nil)
	require.NoError(t, err)
	assert.Len(t, samples, len(DefaultLadder()))
}

func TestSampleCurveWithoutDecimalsFails(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	rpc := new(mocks.RPC)
	rpc.On("GetTokenSupply", mock.Anything, mint).Return(nil, blockchain.ProtocolError("getTokenSupply", errors.New("not a mint")))
	quoter := new(mocks.Quoter)

	samples, err := NewSampler(rpc, quoter, Config{}, zap.NewNop(), nil).SampleCurve(context.Background(), mint, sizes(1))
	assert.Nil(t, samples)
	assert.ErrorIs(t, err, blockchain.ErrProtocol)
	quoter.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateLadder(t *testing.T) {
	assert.NoError(t, ValidateLadder(sizes(1, 5, 10)))
	assert.ErrorIs(t, ValidateLadder(sizes(1, 1)), blockchain.ErrValidation)
	assert.ErrorIs(t, ValidateLadder(sizes(10, 5)), blockchain.ErrValidation)
	assert.ErrorIs(t, ValidateLadder(sizes(0, 5)), blockchain.ErrValidation)
	assert.ErrorIs(t, ValidateLadder([]decimal.Decimal{decimal.RequireFromString("-1")}), blockchain.ErrValidation)
}

func TestToBaseUnits(t *testing.T) {
	n, err := toBaseUnits(decimal.RequireFromString("2.5"), 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000), n)

	_, err = toBaseUnits(decimal.RequireFromString("0.0000001"), 6)
	assert.ErrorIs(t, err, blockchain.ErrValidation)

	_, err = toBaseUnits(decimal.RequireFromString("1e30"), 9)
	assert.ErrorIs(t, err, blockchain.ErrValidation)
}

func TestSampleCurveCancelledMidway(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rpc := new(mocks.RPC)
	rpc.On("GetTokenSupply", mock.Anything, mint).Return(&blockchain.TokenMint{Decimals: 0}, nil)
	quoter := new(mocks.Quoter)
	quoter.On("Quote", mock.Anything, mint, blockchain.NativeMint, uint64(1)).
		Run(func(mock.Arguments) { cancel() }).
		Return(&blockchain.Quote{OutAmount: 5, RouteHops: 1}, nil)

	sampler := NewSampler(rpc, quoter, Config{Delay: 10 * time.Millisecond}, zap.NewNop(), nil)
	samples, err := sampler.SampleCurve(ctx, mint, sizes(1, 2, 3))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, samples, 3)
	assert.True(t, samples[0].PricePerUnit.Valid)
	assert.False(t, samples[1].PricePerUnit.Valid)
	assert.Equal(t, "3", samples[2].Size.String())
}
