// internal/blockchain/solbc/types.go
package solbc

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Типизированные формы result для каждого вызова. Необязательные поля -
// указатели, чтобы отличать "нет значения" от нуля.

type balanceResult struct {
	Value uint64 `json:"value"`
}

type tokenSupplyResult struct {
	Value *rpc.UiTokenAmount `json:"value"`
}

type tokenAccountsResult struct {
	Value []tokenAccount `json:"value"`
}

type tokenAccount struct {
	Pubkey  solana.PublicKey `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed *struct {
				Info struct {
					Mint        string             `json:"mint"`
					Owner       string             `json:"owner"`
					TokenAmount *rpc.UiTokenAmount `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

type transactionResult struct {
	Slot        uint64                  `json:"slot"`
	BlockTime   *solana.UnixTimeSeconds `json:"blockTime"`
	Meta        *transactionMeta        `json:"meta"`
	Transaction *struct {
		Message struct {
			AccountKeys []solana.PublicKey `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// transactionMeta - подмножество meta, нужное для дельт. Собственный тип вместо
// rpc.TransactionMeta: остальные поля нам не нужны и могут не декодироваться.
type transactionMeta struct {
	Err               interface{}          `json:"err"`
	Fee               uint64               `json:"fee"`
	PreBalances       []uint64             `json:"preBalances"`
	PostBalances      []uint64             `json:"postBalances"`
	PreTokenBalances  []rpc.TokenBalance   `json:"preTokenBalances"`
	PostTokenBalances []rpc.TokenBalance   `json:"postTokenBalances"`
	LoadedAddresses   *rpc.LoadedAddresses `json:"loadedAddresses"`
}
