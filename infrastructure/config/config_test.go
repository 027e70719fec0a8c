package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, SaverMemory, cfg.Saver)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsLambda)

	rules := cfg.DomainRules()
	assert.True(t, rules.StrictPositionUpdates)
	assert.True(t, rules.AllowSelfConnections)
	assert.False(t, rules.AllowDuplicateEdges)
}

func TestLoadConfig_FileUnderEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowcanvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_address: ":9090"
saver: dynamodb
table_name: from-file
max_canvases: 5
allow_duplicate_edges: true
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TABLE_NAME", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, SaverDynamoDB, cfg.Saver)
	assert.Equal(t, "from-env", cfg.DynamoDBTable)
	assert.Equal(t, 5, cfg.MaxCanvases)
	assert.True(t, cfg.DomainRules().AllowDuplicateEdges)
}

func TestLoadConfig_UnknownFileKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sever_address: x\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "unknown saver", mutate: func(c *Config) { c.Saver = "s3" }},
		{name: "watch without file", mutate: func(c *Config) { c.WatchPalette = true }},
		{name: "negative canvases", mutate: func(c *Config) { c.MaxCanvases = -1 }},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = "production" }},
		{
			name: "production with secret",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWTSecret = "s3cret"
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
