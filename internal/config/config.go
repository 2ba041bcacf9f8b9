// Package config reads the environment this process is launched with.
// Grounded on cmd/ublk-mem/main.go's flag parsing, adapted from flags to
// environment variables since the host process launches this adapter
// rather than a human invoking a CLI.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/decthings/model-go/internal/logging"
)

// IPCPathEnvVar names the environment variable carrying the unix-domain
// socket path this process connects to on startup.
const IPCPathEnvVar = "IPC_PATH"

// LogLevelEnvVar optionally overrides the default logging.LevelInfo.
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
const LogLevelEnvVar = "DECTHINGS_LOG_LEVEL"

// Config is the adapter's process-level configuration.
type Config struct {
	IPCPath  string
	LogLevel logging.LogLevel
}

// Load reads Config from the environment. Returns an error if IPC_PATH is
// unset or empty.
func Load() (Config, error) {
	path := os.Getenv(IPCPathEnvVar)
	if path == "" {
		return Config{}, fmt.Errorf("config: %s is required", IPCPathEnvVar)
	}

	level := logging.LevelInfo
	switch strings.ToLower(os.Getenv(LogLevelEnvVar)) {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	return Config{IPCPath: path, LogLevel: level}, nil
}
