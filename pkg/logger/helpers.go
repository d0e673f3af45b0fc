package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// Component tags every entry with the component name.
func Component(l Logger, name string) Logger {
	return OrNop(l).WithField("component", name)
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string)                                    {}
func (nopLogger) Info(string)                                     {}
func (nopLogger) Warn(string)                                     {}
func (nopLogger) Error(string)                                    {}
func (nopLogger) Fatal(string)                                    {}
func (n nopLogger) WithField(string, interface{}) Logger          { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger      { return n }
func (n nopLogger) WithError(error) Logger                        { return n }
func (n nopLogger) WithContext(context.Context) Logger            { return n }
func (nopLogger) DebugWithFields(string, map[string]interface{})  {}
func (nopLogger) InfoWithFields(string, map[string]interface{})   {}
func (nopLogger) WarnWithFields(string, map[string]interface{})   {}
func (nopLogger) ErrorWithFields(string, map[string]interface{})  {}
func (nopLogger) FatalWithFields(string, map[string]interface{})  {}
func (nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
