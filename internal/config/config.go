package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Type           string `yaml:"type"`
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Database       string `yaml:"database,omitempty"`
	Username       string `yaml:"username,omitempty"`
	Password       string `yaml:"password,omitempty"`
	SSLMode        string `yaml:"sslmode,omitempty"`
	Path           string `yaml:"path,omitempty"`
	URL            string `yaml:"url,omitempty"`
	AcquireTimeout string `yaml:"acquire_timeout,omitempty"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document and applies the per-type defaults.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	return &config, nil
}

// FromURL builds a config around an explicit connection URL.
func FromURL(rawURL string) (*Config, error) {
	scheme, _, _ := strings.Cut(rawURL, ":")
	config := Config{Database: DatabaseConfig{Type: scheme, URL: rawURL}}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() error {
	dbType, err := normalizeDatabaseType(c.Database.Type)
	if err != nil {
		return err
	}
	c.Database.Type = dbType

	switch dbType {
	case TypePostgres:
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case TypeMySQL:
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
	case TypeSQLite:
		if c.Database.Path == "" {
			c.Database.Path = ":memory:"
		}
	}

	if _, err := c.GetAcquireTimeout(); err != nil {
		return err
	}
	return nil
}

// GetAcquireTimeout is zero when unset, letting the pool pick its default.
func (c *Config) GetAcquireTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Database.AcquireTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Database.AcquireTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid acquire_timeout %q: %w", c.Database.AcquireTimeout, err)
	}
	return d, nil
}

// GetConnectionURL returns the URL handed to the platform dispatcher. An
// explicit url wins over the individual fields.
func (c *Config) GetConnectionURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	switch c.Database.Type {
	case TypeSQLite:
		return TypeSQLite + ":" + c.Database.Path
	case TypeMySQL:
		return c.serverURL(TypeMySQL, nil)
	default:
		query := url.Values{}
		if c.Database.SSLMode != "" {
			query.Set("sslmode", c.Database.SSLMode)
		}
		return c.serverURL(TypePostgres, query)
	}
}

func (c *Config) serverURL(scheme string, query url.Values) string {
	host := c.Database.Host
	if host == "" {
		host = "localhost"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   host + ":" + strconv.Itoa(c.Database.Port),
		Path:   "/" + strings.TrimSpace(c.Database.Database),
	}
	if c.Database.Username != "" {
		if c.Database.Password != "" {
			u.User = url.UserPassword(c.Database.Username, c.Database.Password)
		} else {
			u.User = url.User(c.Database.Username)
		}
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func normalizeDatabaseType(dbType string) (string, error) {
	dbType = strings.ToLower(strings.TrimSpace(dbType))
	switch dbType {
	case "", "postgres", "postgresql", "pg":
		return TypePostgres, nil
	case "mysql", "mariadb":
		return TypeMySQL, nil
	case "sqlite", "sqlite3", "file":
		return TypeSQLite, nil
	}
	return "", fmt.Errorf("unsupported database type: %s", dbType)
}
