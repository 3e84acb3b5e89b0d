package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"savoria/config"
	"savoria/domain/shared"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

type Config struct {
	Enabled       bool
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool

	// RetryOnConcurrentModification stays off in production: a version conflict
	// is reported to the caller, who re-reads and decides.
	RetryOnConcurrentModification bool
	RetryOnDeadlock               bool
	RetryOnLockTimeout            bool
	RetryPredicate                func(error) bool
}

var DefaultConfig = Config{
	Enabled:            true,
	MaxAttempts:        3,
	InitialDelay:       100 * time.Millisecond,
	MaxDelay:           2 * time.Second,
	BackoffFactor:      2.0,
	JitterEnabled:      true,
	RetryOnDeadlock:    true,
	RetryOnLockTimeout: true,
}

func FromAppConfig(appConfig *config.Config) Config {
	r := appConfig.Database.Retry
	return Config{
		Enabled:                       r.Enabled,
		MaxAttempts:                   r.MaxAttempts,
		InitialDelay:                  r.InitialDelay,
		MaxDelay:                      r.MaxDelay,
		BackoffFactor:                 r.BackoffFactor,
		JitterEnabled:                 r.JitterEnabled,
		RetryOnConcurrentModification: r.RetryOnConcurrentModification,
		RetryOnDeadlock:               r.RetryOnDeadlock,
		RetryOnLockTimeout:            r.RetryOnLockTimeout,
	}
}

func ExponentialBackoffWithJitter(attempt int, config Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	if config.JitterEnabled {
		delay *= 0.8 + rand.Float64()*0.4
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// IsRetryableError classifies database errors.
// MySQL: 1213 deadlock, 1205 lock wait timeout. PostgreSQL: 40P01 deadlock, 55P03 lock not available.
// Domain errors other than conflicts are never retryable.
func IsRetryableError(err error, config Config) bool {
	if err == nil {
		return false
	}
	if config.RetryPredicate != nil && config.RetryPredicate(err) {
		return true
	}
	if errors.Is(err, shared.ErrConflict) {
		return config.RetryOnConcurrentModification
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInvalidInput) ||
		errors.Is(err, shared.ErrInvalidState) || errors.Is(err, shared.ErrInvalidTransition) ||
		errors.Is(err, shared.ErrGateway) {
		return false
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1213:
			return config.RetryOnDeadlock
		case 1205:
			return config.RetryOnLockTimeout
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01":
			return config.RetryOnDeadlock
		case "55P03":
			return config.RetryOnLockTimeout
		}
		return false
	}

	// sqlite reports lock contention only as text
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "deadlock") || strings.Contains(msg, "database is locked") {
		return config.RetryOnDeadlock
	}
	if strings.Contains(msg, "lock wait timeout") {
		return config.RetryOnLockTimeout
	}
	return false
}

func ExecuteWithRetry(ctx context.Context, config Config, fn func(ctx context.Context) error) error {
	if !config.Enabled || shared.RetryDisabled(ctx) || config.MaxAttempts <= 1 {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		if !IsRetryableError(err, config) || attempt == config.MaxAttempts {
			break
		}

		delay := ExponentialBackoffWithJitter(attempt, config)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	return lastErr
}
