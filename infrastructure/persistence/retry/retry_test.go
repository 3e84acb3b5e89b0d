package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"savoria/domain/shared"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	c := DefaultConfig
	c.InitialDelay = time.Millisecond
	c.MaxDelay = 2 * time.Millisecond
	c.JitterEnabled = false
	return c
}

func TestIsRetryableError(t *testing.T) {
	cfg := fastConfig()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql deadlock", &mysqlDriver.MySQLError{Number: 1213}, true},
		{"mysql lock wait", &mysqlDriver.MySQLError{Number: 1205}, true},
		{"mysql duplicate key", &mysqlDriver.MySQLError{Number: 1062}, false},
		{"postgres deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"version conflict", shared.NewConflictError("order", "o-1"), false},
		{"validation", shared.NewValidationError("order", "items", "empty"), false},
		{"gateway", shared.NewGatewayError("payment", "p-1", errors.New("deadlock in gateway")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err, cfg))
		})
	}

	cfg.RetryOnConcurrentModification = true
	assert.True(t, IsRetryableError(shared.NewConflictError("order", "o-1"), cfg))
}

func TestExecuteWithRetry(t *testing.T) {
	deadlock := &mysqlDriver.MySQLError{Number: 1213, Message: "Deadlock found"}

	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastConfig(), func(context.Context) error {
			calls++
			if calls < 3 {
				return deadlock
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastConfig(), func(context.Context) error {
			calls++
			return deadlock
		})
		assert.ErrorIs(t, err, deadlock)
		assert.Equal(t, 3, calls)
	})

	t.Run("conflicts are reported at once", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastConfig(), func(context.Context) error {
			calls++
			return shared.NewConflictError("order", "o-1")
		})
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Equal(t, 1, calls)
	})

	t.Run("disabled by context", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(shared.WithoutRetry(context.Background()), fastConfig(), func(context.Context) error {
			calls++
			return deadlock
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := ExecuteWithRetry(ctx, fastConfig(), func(context.Context) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond, BackoffFactor: 2}

	assert.Equal(t, time.Duration(0), ExponentialBackoffWithJitter(0, cfg))
	assert.Equal(t, 100*time.Millisecond, ExponentialBackoffWithJitter(1, cfg))
	assert.Equal(t, 200*time.Millisecond, ExponentialBackoffWithJitter(2, cfg))
	assert.Equal(t, 250*time.Millisecond, ExponentialBackoffWithJitter(3, cfg))

	cfg.JitterEnabled = true
	d := ExponentialBackoffWithJitter(2, cfg)
	assert.GreaterOrEqual(t, d, 160*time.Millisecond)
	assert.LessOrEqual(t, d, 240*time.Millisecond)
}
