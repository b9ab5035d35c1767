package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	configDir      = ".cardboard"
	configFileName = "config.json"

	// DefaultBaseURL is where the CLI looks for the API unless told otherwise.
	DefaultBaseURL = "http://localhost:8080/api/v1"
)

// ClientConfig stores the CLI configuration.
type ClientConfig struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email,omitempty"`
}

// Dir returns ~/.cardboard.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

// GetClientConfigPath returns the path to ~/.cardboard/config.json
func GetClientConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadClientConfig reads the CLI configuration. A missing file yields the
// defaults; CARDBOARD_API_URL overrides the stored base URL.
func LoadClientConfig() (*ClientConfig, error) {
	path, err := GetClientConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &ClientConfig{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if env := os.Getenv("CARDBOARD_API_URL"); env != "" {
		cfg.BaseURL = env
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg, nil
}

// SaveClientConfig writes the CLI configuration.
func SaveClientConfig(cfg *ClientConfig) error {
	path, err := GetClientConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
