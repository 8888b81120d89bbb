package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFileEnvVar = "CONFIG_FILE"
	envFileEnvVar    = "ENV_FILE"
	defaultEnvFile   = ".env"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StorageConfig
	MessagingConfig
	Validate() error
}

type mainConfig struct {
	EnvVars   `yaml:"server"`
	Cors      `yaml:"cors"`
	Tokens    `yaml:"tokens"`
	Security  `yaml:"security"`
	Storage   `yaml:"storage"`
	Messaging `yaml:"messaging"`
}

// New returns the built in defaults with environment overrides applied.
// It does not read any files.
func New() (Config, error) {
	cfg := defaultConfig()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds the configuration from, in increasing precedence: defaults, the
// YAML file named by CONFIG_FILE, a .env file (ENV_FILE, default ".env") and
// the process environment. The result is validated before it is returned.
func Load() (Config, error) {
	envFile := GetEnv(envFileEnvVar, defaultEnvFile)
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configFileEnvVar); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *mainConfig {
	return &mainConfig{
		EnvVars:   defaultEnvVars(),
		Cors:      defaultCors(),
		Tokens:    defaultTokens(),
		Security:  defaultSecurity(),
		Storage:   defaultStorage(),
		Messaging: Messaging{},
	}
}

func (c *mainConfig) applyEnvOverrides() error {
	c.EnvVars.applyEnv()
	c.Cors.applyEnv()
	c.Messaging.applyEnv()
	if err := c.Tokens.applyEnv(); err != nil {
		return err
	}
	if err := c.Security.applyEnv(); err != nil {
		return err
	}
	return c.Storage.applyEnv()
}

// Validate rejects settings the server cannot safely start with.
func (c *mainConfig) Validate() error {
	if err := c.Tokens.validate(); err != nil {
		return err
	}
	if err := c.Security.validate(); err != nil {
		return err
	}
	return c.Storage.validate()
}
