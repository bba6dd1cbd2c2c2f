package api

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrorReporter forwards failures the caller never sees in detail.
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// LogReporter writes reports to the process log. Used when no DSN is set.
type LogReporter struct {
	Logger *zap.Logger
}

func (r LogReporter) Report(_ context.Context, err error, tags map[string]string) {
	fields := []zap.Field{zap.String("error", eris.ToString(err, false))}
	for k, v := range tags {
		fields = append(fields, zap.String(k, v))
	}
	r.Logger.Error("reported failure", fields...)
}

func (LogReporter) Flush(time.Duration) {}

type SentryReporter struct {
	hub *sentry.Hub
}

func NewSentryReporter(dsn, environment string) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sentry client")
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *SentryReporter) Report(_ context.Context, err error, tags map[string]string) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

func (r *SentryReporter) Flush(timeout time.Duration) {
	r.hub.Flush(timeout)
}

// NewReporter picks Sentry when dsn is set and the log otherwise.
func NewReporter(dsn string, logger *zap.Logger) (ErrorReporter, error) {
	if dsn == "" {
		return LogReporter{Logger: logger}, nil
	}
	rep, err := NewSentryReporter(dsn, "production")
	if err != nil {
		return nil, err
	}
	return rep, nil
}
