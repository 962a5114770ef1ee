// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// Policy - ограниченный повтор с экспоненциальной задержкой.
type Policy struct {
	MaxTries        uint          `mapstructure:"max_tries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed"`
}

// DefaultPolicy возвращает политику по умолчанию: 3 попытки в пределах 10 секунд.
func DefaultPolicy() Policy {
	return Policy{
		MaxTries:        3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return b
}

// Do выполняет fn с повторами. Повторяются только сетевые ошибки, остальные
// возвращаются сразу. Отмена контекста во время ожидания - Network ошибка.
func Do[T any](ctx context.Context, p Policy, logger *zap.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	operation := func() (T, error) {
		res, err := fn(ctx)
		if err != nil && !blockchain.IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug("Retrying after network error",
				zap.String("op", op),
				zap.Duration("next", next),
				zap.Error(err))
		}),
	}
	if p.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(p.MaxTries))
	}
	if p.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsedTime))
	}

	res, err := backoff.Retry(ctx, operation, opts...)
	if err == nil {
		return res, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return res, permanent.Err
	}
	if blockchain.KindOf(err) == blockchain.KindUnknown {
		return res, blockchain.NetworkError(op, err)
	}
	return res, err
}
