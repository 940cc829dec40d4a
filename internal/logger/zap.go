package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitlab.com/amap/amap-dispatch/internal/config"
)

// EnvDebug switches every logger to the development encoder when set.
const EnvDebug = "AMAP_DEBUG"

type Logger struct {
	*zap.Logger
}

func (l *Logger) init() error {
	var err error
	if _, debug := os.LookupEnv(EnvDebug); debug || config.GetConfig().General.Debug {
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l.Logger, err = zapConfig.Build()
	} else {
		zapConfig := zap.NewProductionConfig()
		// stdout carries command output for the CLI
		zapConfig.OutputPaths = []string{"stderr"}
		l.Logger, err = zapConfig.Build()
	}

	return err
}

// New takes in a package to initialize the new Logger in.
func New(pkg string) *Logger {
	Log := &Logger{}
	if err := Log.init(); err != nil {
		panic(err)
	}

	Log.Logger = Log.Logger.With(
		zap.String("package", pkg),
	)

	return Log
}

