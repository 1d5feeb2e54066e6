package container

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// LoggerPackage provides the process logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})

	do.Provide(injector, func(i *do.Injector) (watermill.LoggerAdapter, error) {
		return NewWatermillLogger(do.MustInvoke[*zap.Logger](i)), nil
	})
}

// WatermillLogger adapts zap to watermill's logger interface.
type WatermillLogger struct {
	logger *zap.Logger
}

// NewWatermillLogger creates a watermill logger writing to logger.
func NewWatermillLogger(logger *zap.Logger) *WatermillLogger {
	return &WatermillLogger{logger: logger.Named("watermill")}
}

func zapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}

	return out
}

func (w *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (w *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Info(msg, zapFields(fields)...)
}

func (w *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, zapFields(fields)...)
}

// Trace is mapped to debug; zap has no lower level.
func (w *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debug(msg, zapFields(fields)...)
}

func (w *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{logger: w.logger.With(zapFields(fields)...)}
}

var _ watermill.LoggerAdapter = (*WatermillLogger)(nil)
