package configuration

import (
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

var DefaultEnvFiles = []string{".env", ".env.local"}

type DatabaseOptions struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"5438"`
	User     string `env:"DB_USER" envDefault:"app"`
	Password string `env:"DB_PASSWORD" envDefault:"app"`
	Name     string `env:"DB_NAME" envDefault:"contact_directory"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN prefers DATABASE_URL and otherwise assembles a postgres URL from the
// DB_* parts.
func (d DatabaseOptions) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type AuthzOptions struct {
	Mode          string `env:"AUTHZ_MODE" envDefault:"enforce"`
	AllowDisabled bool   `env:"AUTHZ_UNSAFE_ALLOW_DISABLED"`
	ModelPath     string `env:"AUTHZ_MODEL_PATH"`
	PolicyPath    string `env:"AUTHZ_POLICY_PATH"`
}

type Configuration struct {
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8080"`
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"memory"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"directory.db"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	AllowlistPath  string `env:"ALLOWLIST_PATH"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	RoleHeader     string `env:"ROLE_HEADER" envDefault:"X-Directory-Role"`

	Database DatabaseOptions
	Authz    AuthzOptions
}

// LoadEnv loads the env files that exist and reports how many were found.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads env files (values already in the environment win) and parses
// the configuration.
func Load(envFiles []string) (*Configuration, error) {
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, err
	}
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("configuration: SQLITE_PATH required for sqlite store")
		}
	default:
		return errors.New("configuration: invalid STORE_DRIVER (expected memory|postgres|sqlite)")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("configuration: HTTP_ADDR required")
	}
	return nil
}
