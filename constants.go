package model

import "github.com/decthings/model-go/internal/config"

// IPCPathEnvVar names the environment variable Run reads to find the
// host's unix-domain socket.
const IPCPathEnvVar = config.IPCPathEnvVar

// LogLevelEnvVar optionally overrides the default log level.
const LogLevelEnvVar = config.LogLevelEnvVar
