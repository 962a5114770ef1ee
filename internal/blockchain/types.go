// internal/blockchain/types.go
package blockchain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// NativeDecimals - количество знаков нативного актива (lamports -> SOL).
const NativeDecimals = 9

// MaxSignaturesLimit - верхняя граница limit для getSignaturesForAddress.
const MaxSignaturesLimit = 1000

// NativeMint - wrapped SOL, выходной актив для котировок.
var NativeMint = solana.SolMint

// TokenMint описывает метаданные минта.
type TokenMint struct {
	Mint     solana.PublicKey `json:"mint"`
	Decimals uint8            `json:"decimals"`
	// Supply в человекочитаемых единицах (raw / 10^decimals)
	Supply decimal.Decimal `json:"supply"`
	// RawSupply - целое значение, как его вернул узел
	RawSupply string `json:"raw_supply"`
}

// TokenAccountBalance - один токен-аккаунт владельца.
type TokenAccountBalance struct {
	Account solana.PublicKey
	// UIAmount пуст, если узел не вернул сумму для аккаунта
	UIAmount decimal.NullDecimal
}

// SignatureInfo - элемент ответа getSignaturesForAddress.
type SignatureInfo struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime *time.Time
	Failed    bool
}

// TransactionRecord - транзакция в виде, нужном для восстановления дельт.
// AccountKeys, PreBalances и PostBalances выровнены по индексу.
type TransactionRecord struct {
	Signature         solana.Signature
	Slot              uint64
	BlockTime         *time.Time
	AccountKeys       []solana.PublicKey
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []rpc.TokenBalance
	PostTokenBalances []rpc.TokenBalance
	Fee               uint64
	Failed            bool
}

// IndexOf возвращает индекс адреса в списке ключей или -1.
func (r *TransactionRecord) IndexOf(address solana.PublicKey) int {
	for i, key := range r.AccountKeys {
		if key.Equals(address) {
			return i
		}
	}
	return -1
}

// Quote - лучшая котировка агрегатора.
type Quote struct {
	InputMint      solana.PublicKey
	OutputMint     solana.PublicKey
	InAmount       uint64
	OutAmount      uint64
	RouteHops      int
	PriceImpactPct decimal.NullDecimal
}

// RPC - то, что сервисам нужно от адаптера блокчейна.
type RPC interface {
	GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error)
	GetTokenSupply(ctx context.Context, mint solana.PublicKey) (*TokenMint, error)
	GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]TokenAccountBalance, error)
	GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]SignatureInfo, error)
	GetTransaction(ctx context.Context, signature solana.Signature) (*TransactionRecord, error)
}

// Quoter - адаптер сервиса котировок.
type Quoter interface {
	Quote(ctx context.Context, inputMint, outputMint solana.PublicKey, amountBaseUnits uint64) (*Quote, error)
}

// ParseAddress разбирает base58-адрес, ошибка классифицируется как Validation.
func ParseAddress(op, s string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, ValidationError(op, err)
	}
	return key, nil
}

// LamportsToNative переводит lamports в SOL без потери точности.
func LamportsToNative(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-NativeDecimals)
}

// LamportsDelta возвращает post - pre в SOL; разность берется в знаковой арифметике.
func LamportsDelta(pre, post uint64) decimal.Decimal {
	return decimal.NewFromUint64(post).Sub(decimal.NewFromUint64(pre)).Shift(-NativeDecimals)
}

// UIAmount переводит UiTokenAmount в decimal. Приоритет: uiAmountString,
// затем amount со сдвигом на decimals, затем uiAmount. Если ничего нет,
// результат недоступен (Valid=false), а не ноль.
func UIAmount(amount *rpc.UiTokenAmount) decimal.NullDecimal {
	if amount == nil {
		return decimal.NullDecimal{}
	}
	if amount.UiAmountString != "" {
		if d, err := decimal.NewFromString(amount.UiAmountString); err == nil {
			return decimal.NewNullDecimal(d)
		}
	}
	if amount.Amount != "" {
		if d, err := decimal.NewFromString(amount.Amount); err == nil {
			return decimal.NewNullDecimal(d.Shift(-int32(amount.Decimals)))
		}
	}
	if amount.UiAmount != nil {
		return decimal.NewNullDecimal(decimal.NewFromFloat(*amount.UiAmount))
	}
	return decimal.NullDecimal{}
}
