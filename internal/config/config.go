package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process-wide settings. It is built once in main and handed
// to the components that need it.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"dev"`

	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`
	DSN      string `env:"DB_DSN,required,notEmpty"`

	JWTSecret            string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"5m"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`
	PasswordResetTimeout time.Duration `env:"PASSWORD_RESET_TIMEOUT" envDefault:"72h"`

	FrontendURL           string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	ReverifyOnEmailChange bool   `env:"REVERIFY_ON_EMAIL_CHANGE" envDefault:"false"`

	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@taskhub.local"`
	SMTPAddr     string `env:"SMTP_ADDR"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsDev reports whether the process runs in the development environment.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}
