package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	configToml := `
[development]
host = "localhost"
port = 8080
log_level = "trace"
log_to_stdout = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fittrack_db"
redis_host = "localhost"
redis_port = "6379"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"

[production]
host = "0.0.0.0"
port = 9000
log_level = "debug"
logs_path = "/var/log/fittrack.log"
postgres_host = "db-host"
postgres_port = "5432"
postgres_db_name = "fittrack_db"
redis_host = "redis-host"
redis_port = "6379"
prometheus_metrics_host = "0.0.0.0"
prometheus_metrics_port = "2112"
login_rate_limit_allowed_per_min = 10
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(configToml), 0o600))

	devCfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, devCfg.Port)
	assert.Equal(t, "trace", devCfg.LogLevel)
	assert.Equal(t, "fittrack_db", devCfg.PostgresDBName)
	// default applied when not set
	assert.Equal(t, 15, devCfg.LoginRateLimitAllowedPerMin)

	prodCfg, err := Load("prod", path)
	require.NoError(t, err)
	assert.Equal(t, 9000, prodCfg.Port)
	assert.Equal(t, 10, prodCfg.LoginRateLimitAllowedPerMin)

	_, err = Load("staging", path)
	assert.Error(t, err)
}
