package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zapdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
  cors_origins:
    - http://localhost:5173
database:
  path: /tmp/zapdesk.db
auth:
  jwt_secret: test-secret
  token_ttl: 12h
seed:
  path: fixtures/demo.yaml
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/tmp/zapdesk.db", cfg.Database.Path)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "fixtures/demo.yaml", cfg.Seed.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("ZAPDESK_SECRET", "from-env")
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/zapdesk.db
auth:
  jwt_secret: ${ZAPDESK_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_DefaultTokenTTL(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/zapdesk.db
auth:
  jwt_secret: s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing http_addr", "database:\n  path: /tmp/x.db\nauth:\n  jwt_secret: s\n"},
		{"missing database path", "server:\n  http_addr: \":8080\"\nauth:\n  jwt_secret: s\n"},
		{"missing jwt secret", "server:\n  http_addr: \":8080\"\ndatabase:\n  path: /tmp/x.db\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/zapdesk.db
auth:
  jwt_secret: s
  token_ttl: soon
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
