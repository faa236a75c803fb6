package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration
type Config struct {
	DefaultEnv   string               `yaml:"default_env"`
	Environments map[string]EnvConfig `yaml:"environments"`
}

// EnvConfig represents configuration for a specific deployment. AdminKey is
// only needed for item writes; SessionToken acts as a signed-in user.
type EnvConfig struct {
	BaseURL      string `yaml:"base_url"`
	AdminKey     string `yaml:"admin_key,omitempty"`
	SessionToken string `yaml:"session_token,omitempty"`
}

// GetConfigPath returns the path to the config file. ODEGATE_CONFIG overrides
// the default ~/.odegate/config.yaml.
func GetConfigPath() (string, error) {
	if p := os.Getenv("ODEGATE_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".odegate", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{
				DefaultEnv:   "local",
				Environments: make(map[string]EnvConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetEnvConfig resolves the deployment to talk to.
// Priority: command flags > environment variables > config file.
// Returns the config and the effective environment name.
func GetEnvConfig(envName, baseURLFlag, adminKeyFlag string) (*EnvConfig, string, error) {
	envBaseURL := os.Getenv("ODEGATE_BASE_URL")
	envAdminKey := os.Getenv("ODEGATE_ADMIN_KEY")
	envToken := os.Getenv("ODEGATE_SESSION_TOKEN")

	cfg, err := LoadConfig()
	if err != nil {
		return nil, "", err
	}
	if envName == "" {
		envName = cfg.DefaultEnv
	}
	envCfg := cfg.Environments[envName]

	switch {
	case baseURLFlag != "":
		envCfg.BaseURL = baseURLFlag
	case envBaseURL != "":
		envCfg.BaseURL = envBaseURL
	}
	switch {
	case adminKeyFlag != "":
		envCfg.AdminKey = adminKeyFlag
	case envAdminKey != "":
		envCfg.AdminKey = envAdminKey
	}
	if envToken != "" {
		envCfg.SessionToken = envToken
	}

	if envCfg.BaseURL == "" {
		return nil, "", fmt.Errorf("no base_url configured for environment '%s' (use --base-url, ODEGATE_BASE_URL or odegate config init)", envName)
	}
	return &envCfg, envName, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	return SaveConfig(&Config{
		DefaultEnv: "local",
		Environments: map[string]EnvConfig{
			"local": {
				BaseURL:  "http://localhost:8080",
				AdminKey: "admin-123",
			},
			"prod": {
				BaseURL: "https://odegate.example.com",
			},
		},
	})
}
