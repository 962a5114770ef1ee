// internal/observer/settings.go
package observer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// Ключи настроек адресов по умолчанию в таблице settings журнала.
const (
	SettingDefaultWallet = "default_wallet"
	SettingDefaultMint   = "default_mint"
)

// DefaultAddresses возвращает кошелек и mint по умолчанию: сохраненная настройка
// важнее значения из конфигурации. Пустая строка - адрес не задан нигде.
func (o *Observer) DefaultAddresses(ctx context.Context, configWallet, configMint string) (wallet, mint string, err error) {
	wallet, err = o.settingOr(ctx, SettingDefaultWallet, configWallet)
	if err != nil {
		return "", "", err
	}
	mint, err = o.settingOr(ctx, SettingDefaultMint, configMint)
	if err != nil {
		return "", "", err
	}
	return wallet, mint, nil
}

func (o *Observer) settingOr(ctx context.Context, key, fallback string) (string, error) {
	v, err := o.ledger.GetSetting(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	if v == "" {
		return fallback, nil
	}
	return v, nil
}

// SetDefaultAddress проверяет адрес и сохраняет его под ключом настройки.
func (o *Observer) SetDefaultAddress(ctx context.Context, key, address string) error {
	const op = "setDefaultAddress"
	if key != SettingDefaultWallet && key != SettingDefaultMint {
		return blockchain.ValidationError(op, fmt.Errorf("unknown setting %q", key))
	}
	pk, err := blockchain.ParseAddress(op, address)
	if err != nil {
		return err
	}
	if err := o.ledger.SetSetting(ctx, key, pk.String()); err != nil {
		return err
	}
	o.logger.Info("Default address saved", zap.String("key", key), zap.String("address", pk.String()))
	return nil
}
