package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
app:
  name: framework-search
auth:
  jwt_secret: test-secret
database:
  postgres:
    host: localhost
    database: frameworks
    user: search
  elasticsearch:
    addresses:
      - http://localhost:9200
  redis:
    address: localhost:6379
search:
  backend_domain: https://api.example.com
workers:
  search-frameworks:
    enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "frameworks", cfg.Search.FrameworkIndex)
	assert.Equal(t, "/media/", cfg.Search.MediaURL)
	assert.Equal(t, "%s/static/images/default_framework.png", cfg.Search.DefaultImagePath)
	assert.Equal(t, 10, cfg.Search.ResultsPerPage)
	assert.Equal(t, 10, cfg.Search.SuggestionsSize)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.URL)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Address())
	assert.Equal(t, "analytics", cfg.Analytics.Queue)

	worker := cfg.Workers["search-frameworks"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_FRAMEWORK_INDEX", "frameworks-v2")
	body := `
search:
  framework_index: ${TEST_FRAMEWORK_INDEX}
  backend_domain: https://api.example.com
auth:
  jwt_secret: test-secret
database:
  postgres:
    host: localhost
    database: frameworks
    user: search
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "frameworks-v2", cfg.Search.FrameworkIndex)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing postgres host",
			body:    "auth:\n  jwt_secret: x\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name: "camunda enabled without broker",
			body: minimalConfig + "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "image template without placeholder",
			body: `
auth:
  jwt_secret: test-secret
database:
  postgres:
    host: localhost
    database: frameworks
    user: search
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
search:
  default_image_path: /static/default.png
`,
			wantErr: "default_image_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"search-frameworks": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.Equal(t, 2, GetWorkerConfig(cfg, "search-frameworks").MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "search-frameworks"))

	fallback := GetWorkerConfig(cfg, "unknown")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 30000, fallback.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
