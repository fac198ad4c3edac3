package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "BAN_DURATION_HOURS", "BAN_THRESHOLD_DAYS", "TX_RETRY_ATTEMPTS", "REDIS_DB"} {
		t.Setenv(k, "")
	}
	c := Load(filepath.Join(t.TempDir(), "missing.env"))

	if c.AppPort != "8080" || c.DBDriver != "mysql" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.BanDuration != 24*time.Hour || c.BanThresholdDays != 2 || c.TxRetryAttempts != 3 {
		t.Fatalf("unexpected policy defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BAN_THRESHOLD_DAYS=5\nAPP_PORT=9000\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("APP_PORT", "7000")
	t.Setenv("BAN_THRESHOLD_DAYS", "")
	os.Unsetenv("BAN_THRESHOLD_DAYS")
	t.Cleanup(func() { os.Unsetenv("BAN_THRESHOLD_DAYS") })

	c := Load(path)
	if c.AppPort != "7000" {
		t.Fatalf("APP_PORT = %s, want env value 7000", c.AppPort)
	}
	if c.BanThresholdDays != 5 {
		t.Fatalf("BAN_THRESHOLD_DAYS = %d, want 5 from .env", c.BanThresholdDays)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AppPort: "8080", DBDriver: "mysql",
			MySQLHost: "h", MySQLPort: "3306", MySQLDB: "d", MySQLUser: "u",
			BanDuration: time.Hour, BanThresholdDays: 2, TxRetryAttempts: 1,
		}
	}
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.MySQLPort = "notaport" }, true},
		{"missing host", func(c *Config) { c.MySQLHost = "" }, true},
		{"postgres without dsn", func(c *Config) { c.DBDriver = "postgres" }, true},
		{"postgres with dsn", func(c *Config) { c.DBDriver = "postgres"; c.PostgresDSN = "postgres://x" }, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"zero threshold", func(c *Config) { c.BanThresholdDays = 0 }, true},
		{"zero retries", func(c *Config) { c.TxRetryAttempts = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			err := c.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := &Config{DBDriver: "mysql", MySQLHost: "db", MySQLPort: "3306", MySQLDB: "lending", MySQLUser: "u", MySQLPass: "p"}
	want := "u:p@tcp(db:3306)/lending?parseTime=true&loc=UTC&charset=utf8mb4,utf8"
	if got := c.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
	c.DBDriver = "postgres"
	c.PostgresDSN = "postgres://u:p@db/lending"
	if got := c.DSN(); got != c.PostgresDSN {
		t.Fatalf("DSN = %q, want postgres dsn", got)
	}
}
