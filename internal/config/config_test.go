package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.App.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "has-the-privilege", cfg.Auth.AdminToken)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "DB_DRIVER=sqlite\nDB_SQLITE_PATH=/tmp/users.db\nHTTP_PORT=8080\nREDIS_CACHE_TTL=90s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/users.db", cfg.DB.SQLitePath)
	assert.Equal(t, 9090, cfg.App.HTTPPort)
	assert.Equal(t, 90*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:  AppConfig{HTTPPort: 3000, ShutdownTimeout: time.Second},
			DB:   DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"},
			Auth: AuthConfig{AdminToken: "t", BcryptCost: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.App.HTTPPort = 0 }, wantErr: "invalid HTTP_PORT"},
		{name: "no shutdown timeout", mutate: func(c *Config) { c.App.ShutdownTimeout = 0 }, wantErr: "SHUTDOWN_TIMEOUT_SECONDS"},
		{name: "postgres without host", mutate: func(c *Config) { c.DB.Driver = DriverPostgres }, wantErr: "DB_HOST"},
		{name: "sqlite without path", mutate: func(c *Config) { c.DB.SQLitePath = "" }, wantErr: "DB_SQLITE_PATH"},
		{name: "redis without host", mutate: func(c *Config) { c.Redis.Enabled = true }, wantErr: "REDIS_HOST"},
		{name: "rate limit without redis", mutate: func(c *Config) { c.RateLimit.Enabled = true }, wantErr: "requires REDIS_ENABLED"},
		{
			name: "rate limit without rps",
			mutate: func(c *Config) {
				c.Redis = RedisConfig{Enabled: true, Host: "localhost"}
				c.RateLimit = RateLimitConfig{Enabled: true, Burst: 1}
			},
			wantErr: "RATE_LIMIT_RPS",
		},
		{name: "no admin credentials", mutate: func(c *Config) { c.Auth.AdminToken = "" }, wantErr: "AUTH_ADMIN_TOKEN"},
		{name: "jwt only", mutate: func(c *Config) { c.Auth.AdminToken = ""; c.Auth.JWTSecret = "s" }},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, wantErr: "AUTH_BCRYPT_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "n", Port: 5432, SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable", db.DSN())
}
