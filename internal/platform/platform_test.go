package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qolzam/mailer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRetrying(retries int) *BaseService {
	return &BaseService{config: &ServiceConfig{MaxRetries: retries, RetryDelay: time.Millisecond}}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := newRetrying(3).ExecuteWithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		boom := errors.New("down")
		err := newRetrying(2).ExecuteWithRetry(context.Background(), func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := newRetrying(5).ExecuteWithRetry(ctx, func() error { return errors.New("down") })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewBaseService_RequiresConfig(t *testing.T) {
	_, err := NewBaseService(context.Background(), nil)
	assert.Error(t, err)
}

func TestBaseService_HealthCheckWithoutDatabase(t *testing.T) {
	s := NewBaseServiceWithClients(nil, testutil.NewMemoryCacheService(t))
	assert.Error(t, s.HealthCheck(context.Background()))
}

func TestBaseService_Postgres(t *testing.T) {
	if !testutil.ShouldRunDatabaseTests() {
		t.Skip("set RUN_DB_TESTS=1 to run database tests")
	}
	cfg := testutil.NewTestConfig(t, nil)
	client := testutil.NewIsolatedPostgres(t, cfg)

	s := NewBaseServiceWithClients(client, testutil.NewMemoryCacheService(t))
	assert.NoError(t, s.HealthCheck(context.Background()))
}
