package connector

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachableDB opens a handle to a port nothing listens on; sql.Open does not dial
func unreachableDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPoolSettings_Apply(t *testing.T) {
	db := unreachableDB(t)

	PoolSettings{MaxOpen: 7, MaxIdle: 3, MaxLifetime: time.Minute, MaxIdleTime: time.Second}.Apply(db)
	assert.Equal(t, 7, GetConnectionStats(db).MaxOpenConns)

	// zero values leave the pool untouched
	PoolSettings{}.Apply(db)
	assert.Equal(t, 7, GetConnectionStats(db).MaxOpenConns)

	LogConnectionStats(zap.NewNop(), "test", db)
}

func TestPingWithTimeout_Unreachable(t *testing.T) {
	db := unreachableDB(t)

	err := PingWithTimeout(context.Background(), db, 2*time.Second)
	assert.Error(t, err)
}

func TestNewConnectors_RequireConfig(t *testing.T) {
	_, err := NewPostgresConnector(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewSnowflakeConnector(context.Background(), nil)
	assert.Error(t, err)
}

func TestOpenDB_Unreachable(t *testing.T) {
	_, err := openDB(context.Background(), "postgres",
		"host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1", PoolSettings{MaxOpen: 1}, 2*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
}
