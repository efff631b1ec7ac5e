package brain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, ":8765", config.ListenAddr)
	assert.Equal(t, ":8766", config.MeshAddr)
	assert.Equal(t, "http://localhost:8766", config.MeshBaseUrl)
	assert.Equal(t, DefaultLlmModel, config.Model)
	assert.Equal(t, nil, config.Validate())
}

func TestLoadConfigEmptyPath(t *testing.T) {
	config, err := LoadConfig("")
	assert.Equal(t, nil, err)
	assert.Equal(t, ":8765", config.ListenAddr)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.toml")
	err := os.WriteFile(path, []byte(`
listen_addr = ":9900"
mesh_addr = ""
allowed_origins = ["http://localhost:5173"]
auth_secret = "test-secret"
`), 0644)
	assert.Equal(t, nil, err)

	config, err := LoadConfig(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, ":9900", config.ListenAddr)
	assert.Equal(t, "", config.MeshAddr)
	assert.Equal(t, []string{"http://localhost:5173"}, config.AllowedOrigins)
	assert.Equal(t, "test-secret", config.AuthSecret)
	// unset values keep their defaults
	assert.Equal(t, DefaultLlmModel, config.Model)
	assert.NotEqual(t, "", config.CacheDir)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.NotEqual(t, nil, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.toml")
	err := os.WriteFile(path, []byte(`listen_addr = ""`), 0644)
	assert.Equal(t, nil, err)

	_, err = LoadConfig(path)
	assert.NotEqual(t, nil, err)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.toml")
	err := os.WriteFile(path, []byte(`anthropic_api_key = "file-key"`), 0644)
	assert.Equal(t, nil, err)

	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	config, err := LoadConfig(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, "env-key", config.AnthropicApiKey)

	t.Setenv("ANTHROPIC_API_KEY", "")
	config, err = LoadConfig(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, "file-key", config.AnthropicApiKey)
}
