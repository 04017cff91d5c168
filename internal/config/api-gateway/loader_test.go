package api_gateway_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: test
server:
  http_addr: ":18080"
auth:
  jwt_secret: "0123456789abcdef-file"
cache:
  redis:
    ttl: 30s
`), 0o600))

	t.Setenv("AUTH_ACCESS_TTL", "5m")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@moh.go.ke")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "api-gateway", cfg.App.Name)
	assert.Equal(t, ":18080", cfg.Server.HTTPAddr)
	assert.Equal(t, ":9090", cfg.Server.GRPCAddr)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.Redis.TTL)
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
	assert.NotEmpty(t, cfg.DB.URL)
	assert.Equal(t, "root@moh.go.ke", cfg.Bootstrap.AdminEmail)
	assert.Equal(t, "National", cfg.Bootstrap.RootName)
	assert.Equal(t, "Africa/Nairobi", cfg.Notifications.Zone.String())
}

func TestLoad_RejectsUnknownTimeZone(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef-env")
	t.Setenv("NOTIFICATIONS_TIME_ZONE", "Mars/Olympus")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "short")
	_, err := Load("")
	assert.Error(t, err)
}
