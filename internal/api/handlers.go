// internal/api/handlers.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

type balanceResponse struct {
	Address string          `json:"address"`
	Mint    string          `json:"mint,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

type deltasResponse struct {
	Records []delta.Record `json:"records"`
	// Partial - пакет прерван по таймауту, Records содержит успевшие записи
	Partial bool   `json:"partial"`
	Error   string `json:"error,omitempty"`
}

type curveResponse struct {
	Mint    string         `json:"mint"`
	Samples []curve.Sample `json:"samples"`
	Partial bool           `json:"partial"`
	Error   string         `json:"error,omitempty"`
}

type earningsResponse struct {
	Entries []*models.Earning `json:"entries"`
}

type cumulativeResponse struct {
	Points []ledger.Point `json:"points"`
}

type appendRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Source models.Source   `json:"source"`
	Note   string          `json:"note"`
}

// panel: value равен null, если панель недоступна.
type panel struct {
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

type snapshotResponse struct {
	Wallet string `json:"wallet"`
	Mint   string `json:"mint"`
	Native panel  `json:"native"`
	Token  panel  `json:"token"`
	Info   panel  `json:"mint_info"`
	Deltas panel  `json:"deltas"`
	Curve  panel  `json:"curve"`
}

func toPanel[T any](p observer.Panel[T]) panel {
	if p.Err != nil {
		return panel{Error: p.Err.Error(), Kind: blockchain.KindOf(p.Err).String()}
	}
	return panel{Value: p.Value}
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	bal, err := s.obs.NativeBalance(r.Context(), address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: address, Balance: bal})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	owner, mint := r.PathValue("owner"), r.PathValue("mint")
	bal, err := s.obs.TokenBalance(r.Context(), owner, mint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Address: owner, Mint: mint, Balance: bal})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	info, err := s.obs.MintInfo(r.Context(), r.PathValue("mint"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeltas(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records, err := s.obs.RecentDeltas(r.Context(), r.PathValue("address"), r.PathValue("mint"), limit)
	if err != nil && len(records) == 0 {
		s.writeError(w, r, err)
		return
	}
	resp := deltasResponse{Records: records}
	if resp.Records == nil {
		resp.Records = []delta.Record{}
	}
	if err != nil {
		resp.Partial = true
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	ladder, err := parseLadder(r.URL.Query().Get("ladder"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mint := r.PathValue("mint")
	samples, err := s.obs.SampleCurve(r.Context(), mint, ladder)
	if err != nil && samples == nil {
		s.writeError(w, r, err)
		return
	}
	resp := curveResponse{Mint: mint, Samples: samples}
	if err != nil {
		resp.Partial = true
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.obs.Snapshot(r.Context(), r.PathValue("wallet"), r.PathValue("mint"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		Wallet: snap.Wallet,
		Mint:   snap.Mint,
		Native: toPanel(snap.Native),
		Token:  toPanel(snap.Token),
		Info:   toPanel(snap.Info),
		Deltas: toPanel(snap.Deltas),
		Curve:  toPanel(snap.Curve),
	})
}

func (s *Server) handleListEarnings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.obs.ListEarnings(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.Earning{}
	}
	writeJSON(w, http.StatusOK, earningsResponse{Entries: entries})
}

func (s *Server) handleAppendEarning(w http.ResponseWriter, r *http.Request) {
	const op = "appendEarning"
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req appendRequest
	if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, blockchain.ValidationError(op, err))
		return
	}
	// import-записи появляются только через подтверждение импорта
	if req.Source != "" && req.Source != models.SourceManual {
		s.writeError(w, r, blockchain.ValidationError(op,
			fmt.Errorf("source %q is not accepted here, only %q", req.Source, models.SourceManual)))
		return
	}
	req.Source = models.SourceManual
	entry, err := s.obs.AppendEarning(r.Context(), req.Amount, req.Source, req.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleCumulative(w http.ResponseWriter, r *http.Request) {
	points, err := s.obs.CumulativeEarnings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if points == nil {
		points = []ledger.Point{}
	}
	writeJSON(w, http.StatusOK, cumulativeResponse{Points: points})
}

// queryInt читает необязательный целый параметр; отсутствие дает 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, blockchain.ValidationError("query", errors.New(name+" must be an integer"))
	}
	return n, nil
}

// parseLadder разбирает "1,5,10"; пустая строка - лестница по умолчанию.
func parseLadder(raw string) ([]decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ladder := make([]decimal.Decimal, 0, len(parts))
	for _, p := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return nil, blockchain.ValidationError("sampleCurve", err)
		}
		ladder = append(ladder, d)
	}
	return ladder, nil
}
