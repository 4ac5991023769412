package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_USER", "catalog")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DBNAME", "catalog")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	loaded, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", loaded.AppEnv)
	assert.True(t, loaded.DualStore)
	assert.Equal(t, 3*time.Second, loaded.StoreTimeout)
	assert.Equal(t, "8080", loaded.HttpServer.Port)
	assert.Equal(t, "9090", loaded.GrpcServer.Port)
	assert.Equal(t, "5432", loaded.Postgres.Port)
	assert.Equal(t, 25, loaded.Postgres.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, loaded.Postgres.ConnMaxLifetime)
	assert.True(t, loaded.Postgres.BootstrapSchema)
	assert.Equal(t, "localhost:6379", loaded.Redis.Addr)
	assert.Equal(t, "products_changes", loaded.Events.Channel)
	assert.Equal(t, 256, loaded.Events.QueueSize)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CATALOG_DUAL_STORE", "false")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("EVENTS_QUEUE_SIZE", "8")
	t.Setenv("POSTGRES_SSLMODE", "require")

	loaded, err := Load()
	require.NoError(t, err)

	assert.False(t, loaded.DualStore)
	assert.Equal(t, 750*time.Millisecond, loaded.StoreTimeout)
	assert.Equal(t, "redis:6380", loaded.Redis.Addr)
	assert.Equal(t, 2, loaded.Redis.DB)
	assert.Equal(t, 8, loaded.Events.QueueSize)
	assert.Equal(t, "host=db.internal port=5432 user=catalog password=secret dbname=catalog sslmode=require", loaded.Postgres.DSN())
}

func TestLoad_ReturnsIndependentValues(t *testing.T) {
	setRequiredEnv(t)

	first, err := Load()
	require.NoError(t, err)
	t.Setenv("APP_ENV", "staging")
	second, err := Load()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, "development", first.AppEnv)
	assert.Equal(t, "staging", second.AppEnv)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DBNAME"} {
		t.Setenv(key, "") // restores the original value after the test
		require.NoError(t, os.Unsetenv(key))
	}

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process configuration")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"zero timeout", "STORE_TIMEOUT", "0s", "STORE_TIMEOUT"},
		{"zero queue", "EVENTS_QUEUE_SIZE", "0", "EVENTS_QUEUE_SIZE"},
		{"bad duration", "STORE_TIMEOUT", "soon", "failed to process configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
