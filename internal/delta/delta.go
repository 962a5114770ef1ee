// internal/delta/delta.go
package delta

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// Compute восстанавливает изменение балансов address в одной транзакции.
// ok=false, если адреса нет в списке ключей (косвенно затронутые аккаунты
// на верхнем уровне не видны) или обе дельты недоступны.
//
// Списки ключей и pre/post балансов считаются выровненными по индексу:
// так устроен ответ getTransaction в Solana.
func Compute(rec *blockchain.TransactionRecord, address, mint solana.PublicKey) (Record, bool) {
	idx := rec.IndexOf(address)
	if idx < 0 {
		return Record{}, false
	}

	out := Record{
		Signature: rec.Signature,
		Slot:      rec.Slot,
		Failed:    rec.Failed,
	}
	if rec.BlockTime != nil {
		out.Timestamp = *rec.BlockTime
	}

	if idx < len(rec.PreBalances) && idx < len(rec.PostBalances) {
		out.DeltaNative = decimal.NewNullDecimal(blockchain.LamportsDelta(rec.PreBalances[idx], rec.PostBalances[idx]))
	}
	if idx == 0 {
		out.FeeNative = decimal.NewNullDecimal(blockchain.LamportsToNative(rec.Fee))
	}
	out.DeltaToken = TokenDelta(rec.PreTokenBalances, rec.PostTokenBalances, address, mint)

	if !out.DeltaNative.Valid && !out.DeltaToken.Valid {
		return Record{}, false
	}
	return out, true
}

// TokenDelta считает sum(post) - sum(pre) по токен-аккаунтам, где owner == address
// и mint == mint. Индекс, которого нет на одной из сторон, считается там нулем
// (аккаунт создан или закрыт в этой транзакции). Результат не зависит от порядка
// записей. Недоступен, если подходящих записей нет или у какой-то нет суммы.
func TokenDelta(pre, post []rpc.TokenBalance, address, mint solana.PublicKey) decimal.NullDecimal {
	preAmounts, preOK := amountsByIndex(pre, address, mint)
	postAmounts, postOK := amountsByIndex(post, address, mint)
	if !preOK || !postOK {
		return decimal.NullDecimal{}
	}
	if len(preAmounts) == 0 && len(postAmounts) == 0 {
		return decimal.NullDecimal{}
	}

	indices := make(map[uint16]struct{}, len(preAmounts)+len(postAmounts))
	for i := range preAmounts {
		indices[i] = struct{}{}
	}
	for i := range postAmounts {
		indices[i] = struct{}{}
	}

	delta := decimal.Zero
	for i := range indices {
		delta = delta.Add(postAmounts[i]).Sub(preAmounts[i])
	}
	return decimal.NewNullDecimal(delta)
}

// amountsByIndex строит accountIndex -> uiAmount. ok=false, если у подходящей
// записи сумма недоступна.
func amountsByIndex(balances []rpc.TokenBalance, address, mint solana.PublicKey) (map[uint16]decimal.Decimal, bool) {
	out := make(map[uint16]decimal.Decimal)
	for _, b := range balances {
		if b.Owner == nil || !b.Owner.Equals(address) || !b.Mint.Equals(mint) {
			continue
		}
		amount := blockchain.UIAmount(b.UiTokenAmount)
		if !amount.Valid {
			return nil, false
		}
		out[b.AccountIndex] = out[b.AccountIndex].Add(amount.Decimal)
	}
	return out, true
}
