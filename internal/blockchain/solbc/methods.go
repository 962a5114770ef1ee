// internal/blockchain/solbc/methods.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// Проверяем, что Client реализует blockchain.RPC интерфейс
var _ blockchain.RPC = (*Client)(nil)

// GetBalance возвращает баланс адреса в lamports.
func (c *Client) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	var res balanceResult
	params := []interface{}{
		address.String(),
		map[string]interface{}{"commitment": rpc.CommitmentConfirmed},
	}
	if err := c.Call(ctx, "getBalance", params, &res); err != nil {
		return 0, err
	}
	return res.Value, nil
}

// GetTokenSupply получает decimals и supply минта.
func (c *Client) GetTokenSupply(ctx context.Context, mint solana.PublicKey) (*blockchain.TokenMint, error) {
	const op = "getTokenSupply"

	var res tokenSupplyResult
	if err := c.Call(ctx, op, []interface{}{mint.String()}, &res); err != nil {
		if IsNullResult(err) {
			return nil, blockchain.NotFoundError(op, fmt.Errorf("mint %s", mint))
		}
		return nil, err
	}
	if res.Value == nil || res.Value.Amount == "" {
		return nil, blockchain.ProtocolError(op, errors.New("missing value.amount"))
	}

	raw, err := decimal.NewFromString(res.Value.Amount)
	if err != nil {
		return nil, blockchain.DecodeError(op, fmt.Errorf("supply amount %q: %w", res.Value.Amount, err))
	}

	return &blockchain.TokenMint{
		Mint:      mint,
		Decimals:  res.Value.Decimals,
		Supply:    raw.Shift(-int32(res.Value.Decimals)),
		RawSupply: res.Value.Amount,
	}, nil
}

// GetTokenAccountsByOwner перечисляет токен-аккаунты владельца для минта.
// Аккаунт без суммы возвращается с UIAmount.Valid=false.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]blockchain.TokenAccountBalance, error) {
	var res tokenAccountsResult
	params := []interface{}{
		owner.String(),
		map[string]interface{}{"mint": mint.String()},
		map[string]interface{}{"encoding": solana.EncodingJSONParsed, "commitment": rpc.CommitmentConfirmed},
	}
	if err := c.Call(ctx, "getTokenAccountsByOwner", params, &res); err != nil {
		return nil, err
	}

	accounts := make([]blockchain.TokenAccountBalance, 0, len(res.Value))
	for _, acc := range res.Value {
		balance := blockchain.TokenAccountBalance{Account: acc.Pubkey}
		if parsed := acc.Account.Data.Parsed; parsed != nil {
			balance.UIAmount = blockchain.UIAmount(parsed.Info.TokenAmount)
		}
		accounts = append(accounts, balance)
	}
	return accounts, nil
}

// GetSignaturesForAddress возвращает до limit последних подписей, новые первыми.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]blockchain.SignatureInfo, error) {
	const op = "getSignaturesForAddress"
	if limit <= 0 || limit > blockchain.MaxSignaturesLimit {
		return nil, blockchain.ValidationError(op, fmt.Errorf("limit %d out of range [1, %d]", limit, blockchain.MaxSignaturesLimit))
	}

	var res []*rpc.TransactionSignature
	params := []interface{}{
		address.String(),
		map[string]interface{}{"limit": limit, "commitment": rpc.CommitmentConfirmed},
	}
	if err := c.Call(ctx, op, params, &res); err != nil {
		return nil, err
	}

	out := make([]blockchain.SignatureInfo, 0, len(res))
	for _, s := range res {
		if s == nil {
			continue
		}
		out = append(out, blockchain.SignatureInfo{
			Signature: s.Signature,
			Slot:      s.Slot,
			BlockTime: unixTime(s.BlockTime),
			Failed:    s.Err != nil,
		})
	}
	return out, nil
}

// GetTransaction загружает транзакцию. Список ключей дополняется адресами
// из lookup-таблиц: accountKeys ++ loaded.writable ++ loaded.readonly,
// в этом порядке индексируются preBalances/postBalances.
func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature) (*blockchain.TransactionRecord, error) {
	const op = "getTransaction"

	var res transactionResult
	params := []interface{}{
		signature.String(),
		map[string]interface{}{
			"encoding":                       solana.EncodingJSON,
			"maxSupportedTransactionVersion": 0,
			"commitment":                     rpc.CommitmentConfirmed,
		},
	}
	if err := c.call(ctx, c.heavyTimeout, op, params, &res); err != nil {
		if IsNullResult(err) {
			return nil, blockchain.NotFoundError(op, fmt.Errorf("transaction %s", signature))
		}
		return nil, err
	}
	if res.Meta == nil {
		return nil, blockchain.ProtocolError(op, errors.New("missing meta"))
	}
	if res.Transaction == nil {
		return nil, blockchain.ProtocolError(op, errors.New("missing transaction"))
	}

	keys := append([]solana.PublicKey{}, res.Transaction.Message.AccountKeys...)
	if loaded := res.Meta.LoadedAddresses; loaded != nil {
		keys = append(keys, loaded.Writable...)
		keys = append(keys, loaded.ReadOnly...)
	}

	return &blockchain.TransactionRecord{
		Signature:         signature,
		Slot:              res.Slot,
		BlockTime:         unixTime(res.BlockTime),
		AccountKeys:       keys,
		PreBalances:       res.Meta.PreBalances,
		PostBalances:      res.Meta.PostBalances,
		PreTokenBalances:  res.Meta.PreTokenBalances,
		PostTokenBalances: res.Meta.PostTokenBalances,
		Fee:               res.Meta.Fee,
		Failed:            res.Meta.Err != nil,
	}, nil
}

func unixTime(ts *solana.UnixTimeSeconds) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time().UTC()
	return &t
}
