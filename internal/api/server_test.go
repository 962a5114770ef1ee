package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
	"github.com/rovshanmuradov/solana-observer/internal/utils/metrics"
)

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	args := m.Called(address)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockObserver) TokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error) {
	args := m.Called(owner, mint)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockObserver) MintInfo(ctx context.Context, mint string) (*blockchain.TokenMint, error) {
	args := m.Called(mint)
	info, _ := args.Get(0).(*blockchain.TokenMint)
	return info, args.Error(1)
}

func (m *mockObserver) RecentDeltas(ctx context.Context, address, mint string, limit int) ([]delta.Record, error) {
	args := m.Called(address, mint, limit)
	records, _ := args.Get(0).([]delta.Record)
	return records, args.Error(1)
}

func (m *mockObserver) SampleCurve(ctx context.Context, mint string, ladder []decimal.Decimal) ([]curve.Sample, error) {
	args := m.Called(mint, ladder)
	samples, _ := args.Get(0).([]curve.Sample)
	return samples, args.Error(1)
}

func (m *mockObserver) AppendEarning(ctx context.Context, amount decimal.Decimal, source models.Source, note string) (*models.Earning, error) {
	args := m.Called(amount.String(), source, note)
	e, _ := args.Get(0).(*models.Earning)
	return e, args.Error(1)
}

func (m *mockObserver) ListEarnings(ctx context.Context, limit int) ([]*models.Earning, error) {
	args := m.Called(limit)
	entries, _ := args.Get(0).([]*models.Earning)
	return entries, args.Error(1)
}

func (m *mockObserver) CumulativeEarnings(ctx context.Context) ([]ledger.Point, error) {
	args := m.Called()
	points, _ := args.Get(0).([]ledger.Point)
	return points, args.Error(1)
}

func (m *mockObserver) Snapshot(ctx context.Context, wallet, mint string, deltaLimit int) (*observer.Snapshot, error) {
	args := m.Called(wallet, mint, deltaLimit)
	snap, _ := args.Get(0).(*observer.Snapshot)
	return snap, args.Error(1)
}

func do(t *testing.T, h http.Handler, method, target, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func TestBalanceRoute(t *testing.T) {
	obs := new(mockObserver)
	obs.On("NativeBalance", "addr1").Return(decimal.RequireFromString("1.5"), nil)
	h := NewServer(obs, nil, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodGet, "/v1/balance/addr1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"address":"addr1","balance":"1.5"}`, body)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{blockchain.ValidationError("op", errors.New("bad address")), http.StatusBadRequest},
		{blockchain.NotFoundError("op", errors.New("no accounts")), http.StatusNotFound},
		{blockchain.NetworkError("op", errors.New("timeout")), http.StatusBadGateway},
		{blockchain.DecodeError("op", errors.New("garbage")), http.StatusBadGateway},
		{blockchain.ProtocolError("op", errors.New("no result")), http.StatusBadGateway},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			obs := new(mockObserver)
			obs.On("TokenBalance", "o", "m").Return(decimal.Decimal{}, tt.err)
			h := NewServer(obs, nil, zap.NewNop()).Handler()

			code, body := do(t, h, http.MethodGet, "/v1/token-balance/o/m", "")
			assert.Equal(t, tt.want, code)
			assert.Contains(t, body, `"kind":"`+blockchain.KindOf(tt.err).String()+`"`)
		})
	}
}

func TestDeltasUnavailableIsNullNotZero(t *testing.T) {
	obs := new(mockObserver)
	obs.On("RecentDeltas", "a", "m", 10).Return([]delta.Record{{
		Timestamp:   time.Unix(1_700_000_000, 0).UTC(),
		Slot:        7,
		DeltaNative: decimal.NewNullDecimal(decimal.Zero),
	}}, nil)
	h := NewServer(obs, nil, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodGet, "/v1/deltas/a/m?limit=10", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"delta_native":"0"`)
	assert.Contains(t, body, `"delta_token":null`)
	assert.Contains(t, body, `"partial":false`)
}

func TestDeltasPartialResult(t *testing.T) {
	obs := new(mockObserver)
	obs.On("RecentDeltas", "a", "m", 0).Return([]delta.Record{{Slot: 1}},
		blockchain.NetworkError("recentDeltas", context.DeadlineExceeded))
	h := NewServer(obs, nil, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodGet, "/v1/deltas/a/m", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"partial":true`)
}

func TestBadLimitIsBadRequest(t *testing.T) {
	h := NewServer(new(mockObserver), nil, zap.NewNop()).Handler()
	code, _ := do(t, h, http.MethodGet, "/v1/earnings?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCurveRouteParsesLadder(t *testing.T) {
	ladder := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(5)}
	obs := new(mockObserver)
	matchLadder := mock.MatchedBy(func(l []decimal.Decimal) bool {
		return len(l) == 2 && l[0].Equal(ladder[0]) && l[1].Equal(ladder[1])
	})
	obs.On("SampleCurve", "m", matchLadder).Return([]curve.Sample{
		{Size: ladder[0], PricePerUnit: decimal.NewNullDecimal(decimal.RequireFromString("0.002")), RouteHops: 1},
		{Size: ladder[1]},
	}, nil)
	h := NewServer(obs, nil, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodGet, "/v1/curve/m?ladder=1,5", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"price_per_unit":"0.002"`)
	assert.Contains(t, body, `"price_per_unit":null`)

	code, _ = do(t, h, http.MethodGet, "/v1/curve/m?ladder=1,x", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAppendEarningRoute(t *testing.T) {
	obs := new(mockObserver)
	obs.On("AppendEarning", "2.25", models.SourceManual, "tip").Return(&models.Earning{
		ID: 1, Source: models.SourceManual, Amount: decimal.RequireFromString("2.25"), Note: "tip",
	}, nil)
	obs.On("AppendEarning", "-1", models.SourceManual, "").
		Return(nil, blockchain.ValidationError("appendEarning", errors.New("amount must be positive")))
	h := NewServer(obs, nil, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodPost, "/v1/earnings", `{"amount":"2.25","note":"tip"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, body, `"amount":"2.25"`)

	code, _ = do(t, h, http.MethodPost, "/v1/earnings", `{"amount":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/v1/earnings", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAppendEarningRejectsImportSource(t *testing.T) {
	obs := new(mockObserver)
	obs.On("AppendEarning", "1", models.SourceManual, "").Return(&models.Earning{
		ID: 2, Source: models.SourceManual, Amount: decimal.RequireFromString("1"),
	}, nil)
	h := NewServer(obs, nil, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodPost, "/v1/earnings", `{"amount":"1","source":"import"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "validation")

	code, _ = do(t, h, http.MethodPost, "/v1/earnings", `{"amount":"1","source":"airdrop"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/v1/earnings", `{"amount":"1","source":"manual"}`)
	assert.Equal(t, http.StatusCreated, code)

	obs.AssertNumberOfCalls(t, "AppendEarning", 1)
}

func TestSnapshotRoute(t *testing.T) {
	obs := new(mockObserver)
	obs.On("Snapshot", "w", "m", 0).Return(&observer.Snapshot{
		Wallet: "w",
		Mint:   "m",
		Native: observer.Panel[decimal.Decimal]{Value: decimal.RequireFromString("3")},
		Token:  observer.Panel[decimal.Decimal]{Err: blockchain.NetworkError("op", errors.New("down"))},
	}, nil)
	h := NewServer(obs, nil, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodGet, "/v1/snapshot/w/m", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"native":{"value":"3"}`)
	assert.Contains(t, body, `"token":{"value":null,"error":"network [op]: down","kind":"network"}`)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordCurveGap()
	h := NewServer(new(mockObserver), reg, zap.NewNop()).Handler()

	code, body := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "solana_observer_curve_gaps_total 1")
}
