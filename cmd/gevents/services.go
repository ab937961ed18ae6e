package main

import (
	"log/slog"

	"github.com/bassbeaver/gevents"
)

const eventLoggerAlias = "event_logger"

// eventLogger is a listener service that config can attach to any tag as "event_logger:Record".
type eventLogger struct {
	logger *slog.Logger
}

func (l *eventLogger) Record(args ...interface{}) {
	l.logger.Info("event received", "args", args)
}

func newEventLogger() *eventLogger {
	return &eventLogger{logger: slog.Default().With("component", eventLoggerAlias)}
}

func registerBuiltinServices(kernel *gevents.Kernel) error {
	if !kernel.HasServiceConfig(eventLoggerAlias) {
		return nil
	}

	return kernel.RegisterService(eventLoggerAlias, newEventLogger, true)
}
