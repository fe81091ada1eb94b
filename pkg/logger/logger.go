// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
)

type Sugared = *zap.SugaredLogger

// New builds the process logger. Production config for "prod"
// environments, human-readable development config otherwise.
func New(env string) Sugared {
	var z *zap.Logger
	if env == "prod" {
		z, _ = zap.NewProduction()
	} else {
		z, _ = zap.NewDevelopment()
	}
	return z.Sugar()
}

// Named returns a child logger tagged with a component name
// (e.g. "resolve", "deploy").
func Named(log Sugared, name string) Sugared {
	return log.Named(name)
}
