package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestNewConfig(t *testing.T) {
	t.Run("test environment defaults", func(t *testing.T) {
		setEnv(t, map[string]string{"ENV": "test", "JWT_SECRET": "", "TEST_SECRETKEY": ""})

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.True(t, conf.TestMode)
		assert.True(t, conf.Debug)
		assert.Equal(t, "TEST", conf.Env)
		assert.NotEmpty(t, conf.SecretKey)
		assert.Equal(t, ":5000", conf.Server.Host)
		assert.Equal(t, 7*24*time.Hour, conf.Server.JWTExpirationDelta)
		assert.Equal(t, "EnglishAI", conf.Database.Name)
		assert.Equal(t, 10*time.Minute, conf.Redis.UserTTL)
		assert.False(t, conf.Redis.Enabled())
		assert.False(t, conf.Gemini.Enabled())
		assert.Equal(t, defaultAllowedOrigins, conf.Server.AllowedOrigins)
	})

	t.Run("deployment variables", func(t *testing.T) {
		setEnv(t, map[string]string{
			"ENV":              "test",
			"JWT_SECRET":       "s3cret",
			"PORT":             "8080",
			"ALLOWED_ORIGINS":  " https://a.example.com, ,https://b.example.com ",
			"REDIS_ADDR":       "localhost:6379",
			"GEMINI_API_KEY":   "key",
			"TEST_ADMIN_EMAIL": " Root@EduEnglish.local ",
		})

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "s3cret", conf.SecretKey)
		assert.Equal(t, ":8080", conf.Server.Host)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, conf.Server.AllowedOrigins)
		assert.True(t, conf.Redis.Enabled())
		assert.True(t, conf.Gemini.Enabled())
		assert.Equal(t, "root@eduenglish.local", conf.Admin.Email)
	})

	t.Run("production requires a secret", func(t *testing.T) {
		setEnv(t, map[string]string{"ENV": "prod", "JWT_SECRET": "", "PROD_SECRETKEY": ""})

		_, err := NewConfig()
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "validating config")
			assert.Contains(t, err.Error(), "JWT_SECRET")
		}
	})

	t.Run("production", func(t *testing.T) {
		setEnv(t, map[string]string{
			"ENV":         "prod",
			"JWT_SECRET":  "s3cret",
			"MONGODB_URI": "mongodb://db:27017",
		})

		conf, err := NewConfig()
		require.NoError(t, err)
		assert.False(t, conf.Debug)
		assert.False(t, conf.TestMode)
		assert.Equal(t, "mongodb://db:27017", conf.Database.URI)
	})
}

func TestConfig_validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "test config"},
		{name: "debug fills in the secret", modify: func(c *Config) { c.SecretKey = "" }},
		{name: "debug needs a database name", modify: func(c *Config) { c.Database.Name = "" }, wantErr: "database.name"},
		{
			name:    "no database uri",
			modify:  func(c *Config) { c.TestMode = false; c.Database.URI = "" },
			wantErr: "MONGODB_URI",
		},
		{
			name: "non-positive jwt expiration",
			modify: func(c *Config) {
				c.TestMode = false
				c.Database.URI = "mongodb://localhost:27017"
				c.Server.JWTExpirationDelta = 0
			},
			wantErr: "parameter server.jwtExpirationDelta must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := NewTestConfig()
			if tt.modify != nil {
				tt.modify(conf)
			}
			err := conf.validate()
			if tt.wantErr != "" {
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, conf.SecretKey)
		})
	}
}
