package core

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:5173",
	"http://localhost:5000",
	"http://localhost:5001",
	"https://eduenglish.vercel.app",
	"https://eduenglish.onrender.com",
}

type (
	Config struct {
		Debug            bool
		TestMode         bool
		AppName          string
		Env              string
		Build            string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		FrontendBaseURL  string
		WorkDir          string
		SeedOnStart      bool

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Gemini   GeminiConfig
		Admin    AdminConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		BodyLimit                 string
		AllowedOrigins            []string
	}

	DatabaseConfig struct {
		URI            string
		Name           string
		ConnectTimeout time.Duration
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		UserTTL  time.Duration
	}

	GeminiConfig struct {
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	AdminConfig struct {
		Username string
		Email    string
		Password string
	}
)

// Enabled reports whether a Redis server is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// Enabled reports whether the AI grammar checker can be used.
func (c GeminiConfig) Enabled() bool { return c.APIKey != "" }

// NewConfig reads the configuration from the environment (and `config/.env.<env>` when present).
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v := newViper(env)
	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		FrontendBaseURL:  strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		WorkDir:          workDir,
		SeedOnStart:      v.GetBool("seedOnStart"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      ":" + v.GetString("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			BodyLimit:                 v.GetString("server.bodyLimit"),
			AllowedOrigins:            splitList(v.GetString("server.allowedOrigins"), defaultAllowedOrigins),
		},
		Database: DatabaseConfig{
			URI:            v.GetString("database.uri"),
			Name:           v.GetString("database.name"),
			ConnectTimeout: v.GetDuration("database.connectTimeout"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			UserTTL:  v.GetDuration("redis.userTTL"),
		},
		Gemini: GeminiConfig{
			APIKey:  v.GetString("gemini.apiKey"),
			Model:   v.GetString("gemini.model"),
			Timeout: v.GetDuration("gemini.timeout"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Email:    CleanString(v.GetString("admin.email"), true /* lower */),
			Password: v.GetString("admin.password"),
		},
	}

	if err := conf.validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return conf, nil
}

func newViper(env string) *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("appName", "EduEnglish")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("seedOnStart", true)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.port", "5000")
	v.SetDefault("server.debugHost", "localhost:5050")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.bodyLimit", "10M")
	v.SetDefault("server.allowedOrigins", "")

	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "EnglishAI")
	v.SetDefault("database.connectTimeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.userTTL", 10*time.Minute)

	v.SetDefault("gemini.apiKey", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.timeout", 20*time.Second)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "admin@eduenglish.local")
	v.SetDefault("admin.password", "")

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// names used by existing deployments
	_ = v.BindEnv("secretKey", "JWT_SECRET")
	_ = v.BindEnv("database.uri", "MONGODB_URI")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.allowedOrigins", "ALLOWED_ORIGINS")
	_ = v.BindEnv("gemini.apiKey", "GEMINI_API_KEY")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	return v
}

func (c *Config) validate() error {
	if c.Debug || c.TestMode {
		if c.SecretKey == "" {
			c.SecretKey = "dev-secret-9f8d7c6b5a4e3d2c1b0a"
		}
		return vala.BeginValidation().Validate(
			vala.StringNotEmpty(c.Database.Name, "database.name"),
		).Check()
	}
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.SecretKey, "JWT_SECRET"),
		vala.StringNotEmpty(c.Database.URI, "MONGODB_URI"),
		vala.StringNotEmpty(c.Database.Name, "database.name"),
		positiveDuration(c.Server.JWTExpirationDelta, "server.jwtExpirationDelta"),
	).Check()
}

func positiveDuration(d time.Duration, name string) vala.Checker {
	return func() (bool, string) {
		return d > 0, fmt.Sprintf("parameter %s must be positive", name)
	}
}

func splitList(s string, fallback []string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return fallback
	}
	return list
}

// NewTestConfig returns a Config suitable for tests; it never touches the environment.
func NewTestConfig() *Config {
	return &Config{
		Debug:                     false,
		TestMode:                  true,
		AppName:                   "EduEnglish",
		Env:                       "TEST",
		Build:                     "test",
		WorkDir:                   Getwd(),
		SecretKey:                 "test-secret",
		DefaultFromEmail:          mail.Address{Name: "EduEnglish", Address: "noreply@localhost"},
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: ServerConfig{
			Host:                      ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			BodyLimit:                 "10M",
			AllowedOrigins:            defaultAllowedOrigins,
		},
		Database: DatabaseConfig{Name: "EnglishAI_test"},
		Gemini:   GeminiConfig{Model: "gemini-1.5-flash"},
		Admin:    AdminConfig{Username: "admin", Email: "admin@eduenglish.local", Password: "Adm1n-pass"},
	}
}
