// Package logger builds the process-wide zap logger. The logger is
// constructed once in bootstrap and injected; packages never reach for a
// global.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a production JSON logger, or a development console logger
// when env is "dev".
func New(env string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if env == "dev" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}
	return log, nil
}
