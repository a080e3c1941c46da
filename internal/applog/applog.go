// Package applog builds the zap logger and carries it on request contexts.
package applog

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int8

const ctxKeyLogger ctxKey = iota

// New returns a production logger, or a development one for env "development".
func New(env string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// With stores l on ctx.
func With(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, l)
}

// From returns the logger stored on ctx, or a no-op logger.
func From(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(ctxKeyLogger).(*zap.SugaredLogger); ok && l != nil {
		return l
	}

	return zap.NewNop().Sugar()
}
