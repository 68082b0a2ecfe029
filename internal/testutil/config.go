// Package testutil locates the live databases used by integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	PostgresURLEnv = "UNISQL_TEST_POSTGRES_URL"
	MySQLURLEnv    = "UNISQL_TEST_MYSQL_URL"
)

// TestConfig is the optional testconfig.yaml; environment variables win.
type TestConfig struct {
	Test struct {
		Databases struct {
			PostgresURL string `yaml:"postgres_url"`
			MySQLURL    string `yaml:"mysql_url"`
		} `yaml:"databases"`
		Execution struct {
			Timeout string `yaml:"timeout"`
		} `yaml:"execution"`
	} `yaml:"test"`
}

// LoadTestConfig reads testconfig.yaml from the working directory or one of
// its parents, then applies the environment overrides. A missing file is not
// an error.
func LoadTestConfig() (*TestConfig, error) {
	var config TestConfig

	possiblePaths := []string{
		"testconfig.yaml",
		filepath.Join("..", "testconfig.yaml"),
		filepath.Join("..", "..", "testconfig.yaml"),
		filepath.Join("..", "..", "..", "testconfig.yaml"),
	}
	for _, path := range possiblePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
		break
	}

	if url := os.Getenv(PostgresURLEnv); url != "" {
		config.Test.Databases.PostgresURL = url
	}
	if url := os.Getenv(MySQLURLEnv); url != "" {
		config.Test.Databases.MySQLURL = url
	}
	return &config, nil
}

// GetTimeout returns the parsed timeout duration
func (c *TestConfig) GetTimeout() time.Duration {
	duration, err := time.ParseDuration(c.Test.Execution.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return duration
}

// PostgresURL returns the live PostgreSQL URL or skips the test.
func PostgresURL(t *testing.T) string {
	t.Helper()
	return liveURL(t, func(c *TestConfig) string { return c.Test.Databases.PostgresURL }, PostgresURLEnv)
}

// MySQLURL returns the live MySQL URL or skips the test.
func MySQLURL(t *testing.T) string {
	t.Helper()
	return liveURL(t, func(c *TestConfig) string { return c.Test.Databases.MySQLURL }, MySQLURLEnv)
}

func liveURL(t *testing.T, pick func(*TestConfig) string, env string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping live database test in short mode")
	}
	config, err := LoadTestConfig()
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}
	url := pick(config)
	if url == "" {
		t.Skipf("%s not set", env)
	}
	return url
}
