package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.Counter.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Counter.RateWindow)
	assert.Equal(t, int64(370), cfg.Counter.ReadSeed)
	assert.Equal(t, int64(371), cfg.Counter.IncrementSeed)
	assert.Equal(t, int64(10), cfg.Counter.BumpMin)
	assert.Equal(t, int64(20), cfg.Counter.BumpMax)
	assert.Equal(t, "0 */3 * * *", cfg.Scheduler.BumpCron)
	assert.Equal(t, time.Hour, cfg.Scheduler.PruneInterval)
	assert.Equal(t, 60*time.Second, cfg.Redis.ListingTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, time.UTC, cfg.App.Location)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://eldoah.example, https://admin.eldoah.example,")
	t.Setenv("COUNTER_BUMP_CRON", "*/30 * * * *")
	t.Setenv("COUNTER_BUMP_ENABLED", "false")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Storage.Driver)
	assert.Equal(t, "promo-hub", cfg.Mongo.Database)
	assert.True(t, cfg.Redis.Enabled, "a REDIS_URL turns redis on by default")
	assert.Equal(t, []string{"https://eldoah.example", "https://admin.eldoah.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "*/30 * * * *", cfg.Scheduler.BumpCron)
	assert.False(t, cfg.Scheduler.BumpEnabled)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 9000, cfg.HTTP.Port)
}

func TestLoad_DatabaseURLFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "promo")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "promo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://promo:pw@db.internal:5432/promo?sslmode=require", cfg.Database.URL)
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		App:     AppConfig{Environment: EnvProduction},
		Storage: StorageConfig{Driver: DriverPostgres},
		Redis:   RedisConfig{Enabled: true},
		HTTP:    HTTPConfig{Port: 0},
		Counter: CounterConfig{BumpMin: 20, BumpMax: 10, RateWindow: time.Hour},
	}

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"DATABASE_URL",
		"REDIS_URL",
		"HTTP_PORT",
		"SESSION_TTL",
		"CRON_SECRET",
		"COUNTER_BUMP_MIN/MAX",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `got "sqlite"`)
}

func TestValidate_MemoryNotInProduction(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CRON_SECRET", "x")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed in production")
}
