// Package retry повторяет операцию с фиксированным интервалом.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy задаёт фиксированный интервал и общее число попыток (включая первую).
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// BuyPolicy - политика отправки транзакции покупки.
var BuyPolicy = Policy{Interval: 10 * time.Millisecond, MaxAttempts: 50}

// NotifyFunc вызывается после каждой неудачной попытки, за которой последует новая.
type NotifyFunc func(attempt int, err error, next time.Duration)

// Permanent помечает ошибку как неповторяемую: Do вернёт её сразу.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do выполняет op до первого успеха или до исчерпания MaxAttempts.
// При исчерпании возвращается ошибка последней попытки.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), notify NotifyFunc) (T, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		attempt int
		lastErr error
	)
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		lastErr = err
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Interval)),
		backoff.WithMaxTries(uint(attempts)),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			notify(attempt, err, next)
		}))
	}

	res, err := backoff.Retry(ctx, operation, opts...)
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
		var zero T
		return zero, ctxErr
	}

	var permanent *backoff.PermanentError
	if errors.As(lastErr, &permanent) {
		return res, permanent.Err
	}
	return res, lastErr
}
