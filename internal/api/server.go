// internal/api/server.go
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// Observer - операции, которые API отдает наружу.
type Observer interface {
	NativeBalance(ctx context.Context, address string) (decimal.Decimal, error)
	TokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error)
	MintInfo(ctx context.Context, mint string) (*blockchain.TokenMint, error)
	RecentDeltas(ctx context.Context, address, mint string, limit int) ([]delta.Record, error)
	SampleCurve(ctx context.Context, mint string, ladder []decimal.Decimal) ([]curve.Sample, error)
	AppendEarning(ctx context.Context, amount decimal.Decimal, source models.Source, note string) (*models.Earning, error)
	ListEarnings(ctx context.Context, limit int) ([]*models.Earning, error)
	CumulativeEarnings(ctx context.Context) ([]ledger.Point, error)
	Snapshot(ctx context.Context, wallet, mint string, deltaLimit int) (*observer.Snapshot, error)
}

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

// Server - HTTP API для внешних потребителей (дашборды, боты) и /metrics.
type Server struct {
	obs      Observer
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewServer создает API. gatherer может быть nil, тогда /metrics не регистрируется.
func NewServer(obs Observer, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{obs: obs, gatherer: gatherer, logger: logger.Named("api")}
}

// Handler возвращает маршрутизатор со всеми маршрутами.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return s.logRequests(mux)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /v1/balance/{address}", s.handleBalance)
	mux.HandleFunc("GET /v1/token-balance/{owner}/{mint}", s.handleTokenBalance)
	mux.HandleFunc("GET /v1/mint/{mint}", s.handleMint)
	mux.HandleFunc("GET /v1/deltas/{address}/{mint}", s.handleDeltas)
	mux.HandleFunc("GET /v1/curve/{mint}", s.handleCurve)
	mux.HandleFunc("GET /v1/snapshot/{wallet}/{mint}", s.handleSnapshot)
	mux.HandleFunc("GET /v1/earnings", s.handleListEarnings)
	mux.HandleFunc("POST /v1/earnings", s.handleAppendEarning)
	mux.HandleFunc("GET /v1/earnings/cumulative", s.handleCumulative)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// ListenAndServe обслуживает addr до отмены ctx, затем завершает активные запросы.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP API", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP API stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// statusFor переводит вид ошибки в HTTP статус.
func statusFor(err error) int {
	switch blockchain.KindOf(err) {
	case blockchain.KindValidation:
		return http.StatusBadRequest
	case blockchain.KindNotFound:
		return http.StatusNotFound
	case blockchain.KindNetwork, blockchain.KindDecode, blockchain.KindProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigStd.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: blockchain.KindOf(err).String()})
}
