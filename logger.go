package eigo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with eigo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDOFs adds the current basis size to the logger.
func (l *Logger) WithDOFs(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dofs", k),
	}
}

// LogExtension logs one accepted greedy extension step.
func (l *Logger) LogExtension(ctx context.Context, dofs, newDOF int, maxErr, triErr float64) {
	l.InfoContext(ctx, "basis extended",
		"dofs", dofs,
		"new_dof", newDOF,
		"max_err", maxErr,
		"triangularity_err", triErr,
	)
}

// LogMaxError logs the worst interpolation error at the current basis size.
func (l *Logger) LogMaxError(ctx context.Context, dofs int, maxErr float64) {
	l.InfoContext(ctx, "maximum interpolation error",
		"dofs", dofs,
		"max_err", maxErr,
	)
}

// LogStop logs a terminal greedy state.
func (l *Logger) LogStop(ctx context.Context, reason StopReason, dofs int) {
	l.InfoContext(ctx, "extension loop stopped",
		"reason", reason.String(),
		"dofs", dofs,
	)
}

// LogEvaluation logs one computed sample evaluation.
func (l *Logger) LogEvaluation(ctx context.Context, index int, parameter string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluation failed",
			"index", index,
			"parameter", parameter,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "evaluation computed",
			"index", index,
			"parameter", parameter,
		)
	}
}
