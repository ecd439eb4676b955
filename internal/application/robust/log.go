package robust

import "robust-element/internal/application/port/output"

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
func (l nopLogger) WithField(string, any) output.LoggerPort { return l }
func (l nopLogger) WithFields(map[string]any) output.LoggerPort { return l }
func (nopLogger) Close() error { return nil }

func loggerOrNop(l output.LoggerPort) output.LoggerPort {
	if l == nil {
		return nopLogger{}
	}
	return l
}
