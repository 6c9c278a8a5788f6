package state

import (
	"context"

	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/boleto-bot/internal/state"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	mutations metric.Int64Counter
)

func init() {
	var err error
	mutations, err = meter.Int64Counter(
		"boleto.mutations",
		metric.WithDescription("Boleto and vocabulary writes confirmed by the store"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

// startSpan opens a span for a state operation. The returned func ends the
// span and records a non-nil error on it.
func startSpan(ctx context.Context, name, ownerID string) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("owner.hash", logger.HashOwnerID(ownerID))),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func recordMutation(ctx context.Context, op string) {
	if mutations == nil {
		return
	}
	mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
