package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{Host: "localhost", User: "postgres", DBName: "post_market", Port: "5432", SSLMode: "disable"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Cache:    CacheConfig{Enabled: true, Driver: "memory", TTL: 60},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.Secret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("incomplete database", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown cache driver", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Driver = "memcached"
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis cache needs address", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Driver = "redis"
		cfg.Redis.Addr = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestDatabaseURLs(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "u", Password: "p", DBName: "n", Port: "5432", SSLMode: "disable", TimeZone: "UTC"}

	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", d.URL())
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", d.DSN())
}

func TestCacheTTL(t *testing.T) {
	assert.Equal(t, 5*time.Minute, CacheConfig{}.TTLDuration())
	assert.Equal(t, 30*time.Second, CacheConfig{TTL: 30}.TTLDuration())
}
