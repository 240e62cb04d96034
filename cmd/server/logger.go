package main

import (
	"go.uber.org/zap"

	"github.com/aquagas/utility-readings-service/internal/config"
	"github.com/aquagas/utility-readings-service/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
