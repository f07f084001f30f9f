package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"residency/internal/onboarding/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanVerifyDocument, tracer.String(tracer.AttrDocumentKind, "selfie"))
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Bool(tracer.AttrCoalesced, true))
	span.AddEvent("retry", tracer.Int("attempt", 2))
	span.End(errors.New("provider timeout"))
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanIncorporate,
		tracer.String(tracer.AttrEntityNameKey, "ab12"),
		tracer.Float64("score", 0.9),
		tracer.Duration(tracer.AttrDeadline, 5*time.Second),
	)
	require.NotNil(t, ctx)
	span.AddEvent("submitted")
	span.End(nil)
}

func TestOTelTracerRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := tracer.NewOTel(tracer.WithOTelTracer(provider.Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanVerifyDocument,
		tracer.String(tracer.AttrDocumentKind, "photo_id"),
		tracer.Duration(tracer.AttrDeadline, 2*time.Second),
	)
	span.SetAttributes(tracer.Bool(tracer.AttrCoalesced, false))
	span.End(errors.New("provider timeout"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, tracer.SpanVerifyDocument, got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "provider timeout", got.Status().Description)
	assert.Contains(t, got.Attributes(), attribute.String(tracer.AttrDocumentKind, "photo_id"))
	assert.Contains(t, got.Attributes(), attribute.Int64(tracer.AttrDeadline, 2000))
	assert.Contains(t, got.Attributes(), attribute.Bool(tracer.AttrCoalesced, false))
}

func TestAttributeConstructors(t *testing.T) {
	assert.Equal(t, int64(150), tracer.Duration("latency", 150*time.Millisecond).Value)
	assert.Equal(t, 3, tracer.Int("n", 3).Value)
	assert.Equal(t, true, tracer.Bool("b", true).Value)
}
