package repository

import (
	"context"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// pgxLogger routes pgx trace output into zerolog under component=pgx.
type pgxLogger struct {
	logger zerolog.Logger
}

func newPgxLogger(logger zerolog.Logger) *pgxLogger {
	return &pgxLogger{logger: logger.With().Str("component", "pgx").Logger()}
}

var pgxLevels = map[tracelog.LogLevel]zerolog.Level{
	tracelog.LogLevelTrace: zerolog.TraceLevel,
	tracelog.LogLevelDebug: zerolog.DebugLevel,
	tracelog.LogLevelInfo:  zerolog.InfoLevel,
	tracelog.LogLevelWarn:  zerolog.WarnLevel,
	tracelog.LogLevelError: zerolog.ErrorLevel,
}

// sensitive keys are dropped unless the entry is logged at trace level:
// slice queries bind search words and filter members as arguments.
var sensitive = map[string]bool{"sql": true, "args": true}

func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if level == tracelog.LogLevelNone {
		return
	}
	zl, ok := pgxLevels[level]
	if !ok {
		zl = zerolog.InfoLevel
	}
	event := l.logger.WithLevel(zl)
	if event == nil {
		return
	}
	for k, v := range data {
		if sensitive[k] && zl != zerolog.TraceLevel {
			continue
		}
		if s, isStr := v.(string); isStr {
			event = event.Str(k, s)
			continue
		}
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
