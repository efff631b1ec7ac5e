package brain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// websocket endpoint
	ListenAddr string `toml:"listen_addr"`
	// mesh http server; empty disables it
	MeshAddr string `toml:"mesh_addr"`
	// url prefix renderers fetch meshes from
	MeshBaseUrl string `toml:"mesh_base_url"`
	// empty or "*" allows all origins
	AllowedOrigins []string `toml:"allowed_origins"`

	CacheDir string `toml:"cache_dir"`
	MeshDb   string `toml:"mesh_db"`

	// llm parser; empty falls back to the rule parser.
	// ANTHROPIC_API_KEY overrides the file value.
	AnthropicApiKey string `toml:"anthropic_api_key"`
	Model           string `toml:"model"`

	// empty disables controller auth
	AuthSecret string `toml:"auth_secret"`
}

func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "voice_mesh_gen")
	return &Config{
		ListenAddr:  ":8765",
		MeshAddr:    ":8766",
		MeshBaseUrl: "http://localhost:8766",
		CacheDir:    cacheDir,
		MeshDb:      filepath.Join(cacheDir, "meshes.db"),
		Model:       DefaultLlmModel,
	}
}

// LoadConfig reads a toml config, filling defaults for missing values.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.AnthropicApiKey = apiKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (self *Config) Validate() error {
	if self.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr required")
	}
	if self.MeshAddr != "" && self.MeshBaseUrl == "" {
		return fmt.Errorf("config: mesh_base_url required when mesh_addr is set")
	}
	if self.CacheDir == "" {
		return fmt.Errorf("config: cache_dir required")
	}
	return nil
}
