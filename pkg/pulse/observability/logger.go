// Package observability provides logging, metrics and tracing for pulse.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds integration and operation fields to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "Redis", "track")
//	enriched.Warn("slow hook") // includes integration, operation
func EnrichLogger(logger *slog.Logger, integrationKey, operation string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("integration", integrationKey),
		slog.String("operation", operation),
	)
}

// LogDispatch logs the completion of one fan-out.
func LogDispatch(logger *slog.Logger, operation string, integrations int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("operation dispatched",
		slog.String("operation", operation),
		slog.Int("integrations", integrations),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogIntegrationFault logs a hook failure that was isolated from the
// remaining integrations.
func LogIntegrationFault(logger *slog.Logger, integrationKey, operation string, err error) {
	if logger == nil {
		return
	}
	logger.Error("integration hook failed",
		slog.String("integration", integrationKey),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogPayloadRejected logs an emission call that failed validation.
func LogPayloadRejected(logger *slog.Logger, operation string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("payload rejected",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogLifecycleEvent logs an application-level lifecycle event.
func LogLifecycleEvent(logger *slog.Logger, event string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("event", event))
	for _, a := range attrs {
		args = append(args, a)
	}
	logger.Info("lifecycle event", args...)
}

// LogDeadLetter logs a failed operation being parked for good.
func LogDeadLetter(logger *slog.Logger, integrationKey, operation string, attempts int, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("operation parked",
		slog.String("integration", integrationKey),
		slog.String("operation", operation),
		slog.Int("attempts", attempts),
		slog.String("reason", reason),
	)
}

// LogShutdown logs the result of draining the dispatch queue.
func LogShutdown(logger *slog.Logger, dropped int, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("shutdown drain incomplete",
			slog.Int("dropped", dropped),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Info("client shut down")
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
