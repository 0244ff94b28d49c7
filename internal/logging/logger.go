package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	// Dir enables a rotating JSON log file next to the console output.
	Dir        string
	Level      string
	MaxMB      int
	MaxFiles   int
	MaxAgeDays int
}

// New builds the diagnostic logger. It never writes the sample log.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "pinglog.log"),
			MaxSize:    cfg.MaxMB,
			MaxBackups: cfg.MaxFiles,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "ts"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), w, level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
