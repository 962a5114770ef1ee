// internal/balance/balance.go
package balance

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// Snapshot - балансы одного адреса. Token пуст, если токенный баланс недоступен.
type Snapshot struct {
	Native decimal.Decimal     `json:"native"`
	Token  decimal.NullDecimal `json:"token"`
}

// Service отвечает на вопросы о балансах через кэшируемый адаптер.
type Service struct {
	rpc    blockchain.RPC
	logger *zap.Logger
}

// NewService создает сервис балансов.
func NewService(rpc blockchain.RPC, logger *zap.Logger) *Service {
	return &Service{rpc: rpc, logger: logger.Named("balance")}
}

// NativeBalance возвращает баланс в SOL.
func (s *Service) NativeBalance(ctx context.Context, address solana.PublicKey) (decimal.Decimal, error) {
	lamports, err := s.rpc.GetBalance(ctx, address)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("native balance of %s: %w", address, err)
	}
	return blockchain.LamportsToNative(lamports), nil
}

// MintInfo возвращает decimals и supply минта.
func (s *Service) MintInfo(ctx context.Context, mint solana.PublicKey) (*blockchain.TokenMint, error) {
	info, err := s.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("mint info of %s: %w", mint, err)
	}
	return info, nil
}

// OwnerTokenBalance суммирует ui-amount по всем токен-аккаунтам владельца для минта.
// Аккаунт без суммы считается нулем; если аккаунтов нет, возвращается NotFound.
func (s *Service) OwnerTokenBalance(ctx context.Context, owner, mint solana.PublicKey) (decimal.Decimal, error) {
	const op = "ownerTokenBalance"

	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("token balance of %s: %w", owner, err)
	}
	if len(accounts) == 0 {
		return decimal.Decimal{}, blockchain.NotFoundError(op, fmt.Errorf("owner %s has no token accounts for mint %s", owner, mint))
	}

	total := decimal.Zero
	for _, acc := range accounts {
		if !acc.UIAmount.Valid {
			s.logger.Debug("Token account without ui amount counted as zero",
				zap.String("account", acc.Account.String()))
			continue
		}
		total = total.Add(acc.UIAmount.Decimal)
	}
	return total, nil
}

// Snapshot собирает нативный и токенный баланс. Ошибка токенного баланса
// не скрывает нативный: Token остается недоступным.
func (s *Service) Snapshot(ctx context.Context, address, mint solana.PublicKey) (*Snapshot, error) {
	native, err := s.NativeBalance(ctx, address)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Native: native}
	token, err := s.OwnerTokenBalance(ctx, address, mint)
	if err != nil {
		s.logger.Debug("Token balance unavailable", zap.Error(err))
		return snap, nil
	}
	snap.Token = decimal.NewNullDecimal(token)
	return snap, nil
}
