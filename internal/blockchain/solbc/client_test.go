package solbc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

type rpcRequest struct {
	ID     interface{}     `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// newTestServer отвечает телом, которое вернул handler для метода запроса.
func newTestServer(t *testing.T, handler func(req rpcRequest) (int, string)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewClient(Options{RPCURL: srv.URL, Timeout: 2 * time.Second, HeavyTimeout: 2 * time.Second}, zap.NewNop(), nil)
}

func envelope(result string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"result":%s}`, result)
}

func TestCallErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"non-2xx status is network", http.StatusServiceUnavailable, `{"error":"down"}`, blockchain.ErrNetwork},
		{"malformed body is decode", http.StatusOK, `{"jsonrpc":"2.0","result":`, blockchain.ErrDecode},
		{"missing result is protocol", http.StatusOK, `{"jsonrpc":"2.0","id":1}`, blockchain.ErrProtocol},
		{"error envelope is protocol", http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`, blockchain.ErrProtocol},
		{"wrong result shape is decode", http.StatusOK, envelope(`{"value":"abc"}`), blockchain.ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(rpcRequest) (int, string) { return tt.status, tt.body })

			_, err := client.GetBalance(context.Background(), solana.NewWallet().PublicKey())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCallTimeoutIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := NewClient(Options{RPCURL: srv.URL, Timeout: 50 * time.Millisecond}, zap.NewNop(), nil)

	_, err := client.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.ErrorIs(t, err, blockchain.ErrNetwork)
}

func TestGetBalance(t *testing.T) {
	client := newTestServer(t, func(req rpcRequest) (int, string) {
		assert.Equal(t, "getBalance", req.Method)
		return http.StatusOK, envelope(`{"context":{"slot":1},"value":1500000000}`)
	})

	lamports, err := client.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)
}

func TestGetTokenSupply(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	client := newTestServer(t, func(req rpcRequest) (int, string) {
		assert.Equal(t, "getTokenSupply", req.Method)
		return http.StatusOK, envelope(`{"context":{"slot":1},"value":{"amount":"1000000000000","decimals":6,"uiAmount":1000000.0,"uiAmountString":"1000000"}}`)
	})

	info, err := client.GetTokenSupply(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, mint, info.Mint)
	assert.Equal(t, uint8(6), info.Decimals)
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(info.Supply))
	assert.Equal(t, "1000000000000", info.RawSupply)
}

func TestGetTokenAccountsByOwnerSumsUIAmounts(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	acc1 := solana.NewWallet().PublicKey()
	acc2 := solana.NewWallet().PublicKey()
	acc3 := solana.NewWallet().PublicKey()

	account := func(pub solana.PublicKey, tokenAmount string) string {
		return fmt.Sprintf(`{"pubkey":%q,"account":{"data":{"parsed":{"info":{"mint":%q,"owner":%q,"tokenAmount":%s},"type":"account"},"program":"spl-token"}}}`,
			pub.String(), mint.String(), owner.String(), tokenAmount)
	}

	client := newTestServer(t, func(req rpcRequest) (int, string) {
		assert.Equal(t, "getTokenAccountsByOwner", req.Method)
		assert.Contains(t, string(req.Params), "jsonParsed")
		return http.StatusOK, envelope(fmt.Sprintf(`{"context":{"slot":1},"value":[%s,%s,%s]}`,
			account(acc1, `{"amount":"12500000","decimals":6,"uiAmount":12.5,"uiAmountString":"12.5"}`),
			account(acc2, `{"amount":"7500000","decimals":6,"uiAmount":7.5,"uiAmountString":"7.5"}`),
			account(acc3, `{"decimals":6}`),
		))
	})

	accounts, err := client.GetTokenAccountsByOwner(context.Background(), owner, mint)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.Equal(t, acc1, accounts[0].Account)
	assert.True(t, accounts[0].UIAmount.Valid)
	assert.True(t, decimal.RequireFromString("12.5").Equal(accounts[0].UIAmount.Decimal))
	assert.True(t, decimal.RequireFromString("7.5").Equal(accounts[1].UIAmount.Decimal))
	assert.False(t, accounts[2].UIAmount.Valid)
}

func TestGetSignaturesForAddress(t *testing.T) {
	sig1 := solana.Signature{1}
	sig2 := solana.Signature{2}

	client := newTestServer(t, func(req rpcRequest) (int, string) {
		assert.Contains(t, string(req.Params), `"limit":2`)
		return http.StatusOK, envelope(fmt.Sprintf(`[
			{"signature":%q,"slot":20,"blockTime":1700000100,"err":null},
			{"signature":%q,"slot":10,"blockTime":null,"err":{"InstructionError":[0,"Custom"]}}
		]`, sig1.String(), sig2.String()))
	})

	sigs, err := client.GetSignaturesForAddress(context.Background(), solana.NewWallet().PublicKey(), 2)
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	assert.Equal(t, sig1, sigs[0].Signature)
	require.NotNil(t, sigs[0].BlockTime)
	assert.Equal(t, int64(1700000100), sigs[0].BlockTime.Unix())
	assert.False(t, sigs[0].Failed)

	assert.Nil(t, sigs[1].BlockTime)
	assert.True(t, sigs[1].Failed)
}

func TestGetSignaturesForAddressRejectsLimit(t *testing.T) {
	client := newTestServer(t, func(rpcRequest) (int, string) {
		t.Fatal("no request expected")
		return 0, ""
	})

	_, err := client.GetSignaturesForAddress(context.Background(), solana.NewWallet().PublicKey(), 0)
	assert.ErrorIs(t, err, blockchain.ErrValidation)

	_, err = client.GetSignaturesForAddress(context.Background(), solana.NewWallet().PublicKey(), blockchain.MaxSignaturesLimit+1)
	assert.ErrorIs(t, err, blockchain.ErrValidation)
}

func TestGetTransactionAppendsLoadedAddresses(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	program := solana.NewWallet().PublicKey()
	writable := solana.NewWallet().PublicKey()
	readonly := solana.NewWallet().PublicKey()
	sig := solana.Signature{7}

	client := newTestServer(t, func(req rpcRequest) (int, string) {
		assert.Equal(t, "getTransaction", req.Method)
		assert.Contains(t, string(req.Params), `"maxSupportedTransactionVersion":0`)
		return http.StatusOK, envelope(fmt.Sprintf(`{
			"slot": 42,
			"blockTime": 1700000000,
			"version": 0,
			"meta": {
				"err": null,
				"fee": 5000,
				"preBalances": [1000000000, 1, 2, 3],
				"postBalances": [950000000, 1, 2, 3],
				"preTokenBalances": [],
				"postTokenBalances": [{"accountIndex":2,"mint":%q,"owner":%q,"programId":"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA","uiTokenAmount":{"amount":"5","decimals":0,"uiAmount":5,"uiAmountString":"5"}}],
				"loadedAddresses": {"writable": [%q], "readonly": [%q]}
			},
			"transaction": {"signatures": [%q], "message": {"accountKeys": [%q, %q]}}
		}`, program.String(), payer.String(), writable.String(), readonly.String(), sig.String(), payer.String(), program.String()))
	})

	rec, err := client.GetTransaction(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, []solana.PublicKey{payer, program, writable, readonly}, rec.AccountKeys)
	assert.Equal(t, 2, rec.IndexOf(writable))
	assert.Equal(t, uint64(5000), rec.Fee)
	assert.False(t, rec.Failed)
	require.NotNil(t, rec.BlockTime)
	assert.Equal(t, int64(1700000000), rec.BlockTime.Unix())
	require.Len(t, rec.PostTokenBalances, 1)
	assert.Equal(t, uint16(2), rec.PostTokenBalances[0].AccountIndex)
}

func TestGetTransactionNullResultIsNotFound(t *testing.T) {
	client := newTestServer(t, func(rpcRequest) (int, string) {
		return http.StatusOK, envelope(`null`)
	})

	_, err := client.GetTransaction(context.Background(), solana.Signature{9})
	require.Error(t, err)
	assert.ErrorIs(t, err, blockchain.ErrNotFound)
}
