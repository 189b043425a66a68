package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"placement-portal/backend/internal/telemetry"
)

const loggerScope = "placement-portal.events"

// recordEmitter is the part of otellog.Logger the adapter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(loggerScope)}
}

// NewEventEmitterWithLogger wraps an arbitrary record sink. Used by tests.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the event to an OTel log record. Failure events are logged at WARN.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now().UTC())
	rec.SetEventName(event.Type)
	rec.SetBody(otellog.StringValue(event.Type))
	rec.SetSeverity(severityFor(event.Type))
	rec.SetSeverityText(severityFor(event.Type).String())

	attrs := []otellog.KeyValue{
		otellog.String("event_id", event.ID),
		otellog.String("event_type", event.Type),
		otellog.String("source", event.Source),
	}
	if event.AccountID != "" {
		attrs = append(attrs, otellog.String("account_id", event.AccountID))
	}
	if event.Role != "" {
		attrs = append(attrs, otellog.String("role", event.Role))
	}
	if event.IP != "" {
		attrs = append(attrs, otellog.String("client_ip", event.IP))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, otellog.String("meta."+k, v))
	}
	rec.AddAttributes(attrs...)
	e.logger.Emit(ctx, rec)
	return nil
}

func severityFor(eventType string) otellog.Severity {
	switch eventType {
	case telemetry.EventLoginFailure, telemetry.EventLoginRateLimited, telemetry.EventRefreshReuseDetected:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
