package logger_test

import (
	"errors"

	"github.com/wonny/etfnav/backend/pkg/config"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	log.WithStage("S2", "").WithFields(map[string]interface{}{
		"input":  150,
		"output": 42,
	}).Info("Drawdown filter completed")

	log.WithError(errors.New("insufficient data")).
		WithField("ticker", "XEQT.TO").
		Warn("Metrics unavailable")
}
