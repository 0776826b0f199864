package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

// Init builds the process-wide logger. LOG_MODE=development switches to the
// console encoder for local runs.
func Init() {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("LOG_MODE") == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = l.Sugar()
}

// Sync flushes buffered entries. Called on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
