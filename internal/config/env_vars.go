package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envEnvVar      = "ENV"
	logLevelEnvVar = "LOG_LEVEL"
	versionEnvVar  = "VERSION"
)

// EnvDev turns on console logging and the route table printout
const EnvDev = "DEV"

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetVersion() string
}

type EnvVars struct {
	Port     string `yaml:"port"`
	AppName  string `yaml:"app_name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	Version  string `yaml:"version"`
}

var _ EnvConfig = EnvVars{}

func defaultEnvVars() EnvVars {
	return EnvVars{
		Port:     "8080",
		AppName:  "Bookstore Auth",
		Env:      EnvDev,
		LogLevel: "info",
		Version:  "dev",
	}
}

func (e *EnvVars) applyEnv() {
	e.Port = GetEnv(portEnvVar, e.Port)
	e.AppName = GetEnv(appNameVar, e.AppName)
	e.Env = GetEnv(envEnvVar, e.Env)
	e.LogLevel = GetEnv(logLevelEnvVar, e.LogLevel)
	e.Version = GetEnv(versionEnvVar, e.Version)
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return EnvDev
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetVersion() string {
	return e.Version
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(envVar string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", envVar, err)
	}
	return d, nil
}

func getEnvInt(envVar string, defaultValue int) (int, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", envVar, err)
	}
	return i, nil
}
