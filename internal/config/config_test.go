package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "dicri.db", cfg.DB)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 8*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10, cfg.LoginRate.PerMinute)
	assert.Equal(t, 5, cfg.LoginRate.Burst)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dicri.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
db: /var/lib/dicri/file.db
addr: ":9000"
token_expiry: 1h
login_rate:
  per_minute: 30
`), 0o600))

	t.Setenv("DICRI_ADDR", ":9100")
	t.Setenv("DICRI_LOGIN_RATE_BURST", "2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "dicri.db", "")
	flags.String("addr", ":8080", "")
	require.NoError(t, flags.Parse([]string{"--db", "/tmp/flag.db"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag.db", cfg.DB, "flag beats file")
	assert.Equal(t, ":9100", cfg.Addr, "env beats file and unset flag")
	assert.Equal(t, time.Hour, cfg.TokenExpiry)
	assert.Equal(t, 30, cfg.LoginRate.PerMinute)
	assert.Equal(t, 2, cfg.LoginRate.Burst)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DICRI_TOKEN_EXPIRY", "-1h")

	_, err := Load("", nil)
	assert.ErrorContains(t, err, "token_expiry")
}
