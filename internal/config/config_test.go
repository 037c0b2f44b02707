package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_DSN", "TRACK_STOCK", "ACCESS_TOKEN_TTL_MIN", "ORDER_EVENTS_QUEUE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "storefront.db", cfg.DBDSN)
	assert.True(t, cfg.TrackStock)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, "order.placed", cfg.OrderQueue)
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "PGX")
	t.Setenv("TRACK_STOCK", "false")
	t.Setenv("BCRYPT_COST", "not-a-number")
	cfg := Load()
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.False(t, cfg.TrackStock)
	assert.Equal(t, 12, cfg.BcryptCost)

	t.Setenv("DB_DRIVER", "mysql")
	assert.Equal(t, "sqlite", Load().DBDriver)
}
