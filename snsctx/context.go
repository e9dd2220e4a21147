// Package snsctx carries per-invocation diagnostics settings through
// context.Context.
package snsctx

import (
	"context"
	"log/slog"
)

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexLogger
)

func IsVerbose(ctx context.Context) bool {
	val, _ := ctx.Value(ctxIndexVerbose).(bool)
	return val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// Logger returns the logger stored in ctx or the default one.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxIndexLogger).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

func SetLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxIndexLogger, l)
}
