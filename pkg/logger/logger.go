package logger

import (
	"sync"

	"furniture-service/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// InitLogger builds the process logger from configuration. Development
// mode uses the console encoder, everything else emits JSON.
func InitLogger(cfg *config.Config) error {
	var err error
	once.Do(func() {
		var zcfg zap.Config
		if cfg.Server.Env == "development" {
			zcfg = zap.NewDevelopmentConfig()
		} else {
			zcfg = zap.NewProductionConfig()
		}
		zcfg.OutputPaths = []string{"stdout"}

		level, parseErr := zapcore.ParseLevel(cfg.Log.Level)
		if parseErr == nil {
			zcfg.Level = zap.NewAtomicLevelAt(level)
		}

		instance, err = zcfg.Build()
	})
	return err
}

// GetLogger returns the process logger, falling back to a production
// logger when InitLogger was never called.
func GetLogger() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		logger, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		instance = logger
	})
	return instance
}
