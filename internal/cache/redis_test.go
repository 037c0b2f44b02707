package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Needs a server: REDIS_ADDR=localhost:6379 go test ./internal/cache
func TestStorageAgainstRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	s := NewStorage(rdb, "storefront:test:")
	defer s.Close()
	require.NoError(t, s.Reset())

	got, err := s.Get("missing")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
	got, err = s.Get("k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete("k"))
	got, err = s.Get("k")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Set("a", []byte("1"), time.Minute))
	require.NoError(t, s.Reset())
	got, err = s.Get("a")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestNewRedisClientFailsFast(t *testing.T) {
	_, err := NewRedisClient("127.0.0.1:1", "", 0)
	require.Error(t, err)
}
