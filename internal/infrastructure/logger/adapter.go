package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"robust-element/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type LoggerAdapter struct {
	log  *zap.SugaredLogger
	file *os.File
}

type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// ToFile writes JSON lines to <Dir>/<timestamp>_<TaskName>.log instead of
	// stderr.
	ToFile   bool
	TaskName string
	Dir      string
}

func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	if !cfg.ToFile {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
		return &LoggerAdapter{log: zap.New(core).Sugar()}, nil
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "log"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(cfg.TaskName))
	file, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level)
	return &LoggerAdapter{log: zap.New(core).Sugar(), file: file}, nil
}

// NewFromZap wraps an existing zap logger. Close does not close its sinks.
func NewFromZap(l *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{log: l.Sugar()}
}

func Nop() *LoggerAdapter {
	return NewFromZap(zap.NewNop())
}

func (l *LoggerAdapter) Debug(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l *LoggerAdapter) Info(msg string, args ...any)  { l.log.Infow(msg, args...) }
func (l *LoggerAdapter) Warn(msg string, args ...any)  { l.log.Warnw(msg, args...) }
func (l *LoggerAdapter) Error(msg string, args ...any) { l.log.Errorw(msg, args...) }

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{log: l.log.With(key, value), file: l.file}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{log: l.log.With(args...), file: l.file}
}

func (l *LoggerAdapter) Close() error {
	// Sync on stderr fails on some platforms; only the file sink matters.
	syncErr := l.log.Sync()
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return err
	}
	return syncErr
}

func sanitize(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	s = string(result)
	if s == "" {
		return "task"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
