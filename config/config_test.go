package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "SkyPort", cfg.AppName)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, "skyport_session", cfg.SessionCookieName)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Duration(0), cfg.ConfirmTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.MailTimeout)
	assert.False(t, cfg.MailSendEnabled)
	assert.Equal(t, "us", cfg.MailgunRegion)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_NAME", "skyport-test")
	t.Setenv("STORE_BACKEND", "MEMORY")
	t.Setenv("PUBLIC_BASE_URL", "https://skyport.example/")
	t.Setenv("CONFIRM_TOKEN_TTL", "48h")
	t.Setenv("MAIL_SEND_ENABLED", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, "skyport-test", cfg.AppName)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "https://skyport.example", cfg.PublicBaseURL)
	assert.Equal(t, 48*time.Hour, cfg.ConfirmTokenTTL)
	assert.True(t, cfg.MailSendEnabled)
	assert.Equal(t, int32(10), cfg.DBMaxConns, "invalid ints fall back to the default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(c *Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.StoreBackend = "mongo" }, wantErr: "STORE_BACKEND"},
		{name: "unknown search", mutate: func(c *Config) { c.SearchBackend = "solr" }, wantErr: "SEARCH_BACKEND"},
		{name: "dev secret in production", mutate: func(c *Config) { c.Env = "production" }, wantErr: "SESSION_SECRET must be set"},
		{
			name: "production with secrets",
			mutate: func(c *Config) {
				c.Env = "production"
				c.SessionSecret = "s3cr3t-session"
				c.ConfirmTokenSecret = "s3cr3t-confirm"
			},
		},
		{name: "negative token ttl", mutate: func(c *Config) { c.ConfirmTokenTTL = -time.Second }, wantErr: "CONFIRM_TOKEN_TTL"},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: "SESSION_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "skyport", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/skyport?sslmode=disable", cfg.PostgresDSN())
}
