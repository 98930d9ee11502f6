package logging

import (
	"context"

	"go.uber.org/zap"
)

var logger = zap.NewNop()

// SetLogger replaces the process logger. A nil logger turns logging off.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

type loggingCtxKey int

const (
	logKey = loggingCtxKey(iota)
)

func FromContextS(ctx context.Context) *zap.SugaredLogger {
	return FromContext(ctx).Sugar()
}

func FromContext(ctx context.Context) *zap.Logger {
	if vlog, ok := ctx.Value(logKey).(*zap.Logger); ok {
		return vlog
	}
	return logger
}

// NewContext stores a logger with the given structured fields attached.
func NewContext(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, logKey, FromContext(ctx).With(fields...))
}

func NewContextS(ctx context.Context, keysAndValues ...interface{}) (nctx context.Context) {
	nctx, _ = NewContextSL(ctx, keysAndValues...)
	return
}

func NewContextSL(ctx context.Context, keysAndValues ...interface{}) (nctx context.Context, slog *zap.SugaredLogger) {
	slog = FromContextS(ctx).With(keysAndValues...)
	nctx = context.WithValue(ctx, logKey, slog.Desugar())
	return
}
