package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 15*time.Second, cfg.RSVP.SubmitTimeout)
	assert.Equal(t, 10*time.Minute, cfg.RSVP.IdempotencyTTL)
	assert.Equal(t, "wedding.rsvp.submitted", cfg.Kafka.Topics.RSVPSubmitted)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", ":9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("RSVP_SUBMIT_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.RSVP.SubmitTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
}

func TestMustLoad_AuthSettings(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ADMIN_TOKEN_TTL", "2h")
	t.Setenv("OIDC_ADMIN_SUBJECTS", "organiser-1,organiser-2")

	cfg := MustLoad()

	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "admin", cfg.Auth.OIDCAdminRole)
	assert.Equal(t, []string{"organiser-1", "organiser-2"}, cfg.Auth.OIDCAdminSubjects)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: ":7070"
database:
  driver: sqlite
  path: "file::memory:"
assets:
  invite_url: "https://asha-and-ravi.example/#rsvp"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.Path)
	assert.Equal(t, "https://asha-and-ravi.example/#rsvp", cfg.Assets.InviteURL)
	assert.Equal(t, 30*time.Second, cfg.RSVP.StatsTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", Username: "u", Password: "p", Name: "wedding", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/wedding?sslmode=disable", d.DSN())

	d.URL = "postgres://override"
	assert.Equal(t, "postgres://override", d.DSN())
}
