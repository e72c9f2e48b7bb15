package http

import (
	"context"
	"log/slog"
)

// handlerBase carries what every handler needs to log and respond.
type handlerBase struct {
	name      string
	logger    *slog.Logger
	responder responder
}

func newHandlerBase(name string, logger *slog.Logger) handlerBase {
	if logger == nil {
		logger = slog.Default()
	}
	return handlerBase{name: name, logger: logger, responder: newResponder(logger)}
}

func (h handlerBase) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = h.logger
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"handler", h.name}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}
