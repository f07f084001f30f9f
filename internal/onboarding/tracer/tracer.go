// Package tracer is a small tracing abstraction for the onboarding module.
//
// Services depend on the Tracer interface instead of OpenTelemetry directly.
// NoopTracer serves tests; OTelTracer adapts the global OpenTelemetry provider.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a span; the returned context carries it to child operations.
	//
	//   ctx, span := t.Start(ctx, tracer.SpanVerifyDocument,
	//       tracer.String(tracer.AttrDocumentKind, "photo_id"),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the onboarding module.
const (
	SpanVerifyDocument = "onboarding.provider.verify_document"
	SpanCheckName      = "onboarding.provider.check_name"
	SpanIncorporate    = "onboarding.provider.incorporate"
)

// Attribute keys used by the onboarding module.
const (
	AttrDocumentKind  = "document.kind"
	AttrEntityNameKey = "entity.name_hash"
	AttrAvailable     = "name_check.available"
	AttrCategory      = "provider.error_category"
	AttrCoalesced     = "name_check.coalesced"
	AttrDeadline      = "deadline_ms"
	AttrAlternatives  = "name_check.alternatives"
)
