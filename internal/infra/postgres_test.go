package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolConfigDefaults(t *testing.T) {
	p := PoolConfig{}.withDefaults()

	assert.Equal(t, 8, p.MaxConns)
	assert.Equal(t, 1, p.MinConns)
	assert.Equal(t, time.Hour, p.MaxConnLifetime)
	assert.Equal(t, 15*time.Minute, p.MaxConnIdleTime)
}

func TestPoolConfigExplicitValuesKept(t *testing.T) {
	p := PoolConfig{
		MaxConns:        32,
		MinConns:        4,
		MaxConnLifetime: 2 * time.Hour,
		MaxConnIdleTime: time.Minute,
	}.withDefaults()

	assert.Equal(t, 32, p.MaxConns)
	assert.Equal(t, 4, p.MinConns)
	assert.Equal(t, 2*time.Hour, p.MaxConnLifetime)
	assert.Equal(t, time.Minute, p.MaxConnIdleTime)
}
