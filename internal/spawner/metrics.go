package spawner

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the spawner's instruments. Counters are labeled with the
// operation outcome so dashboards can separate attaches from fresh
// submissions and failures.
type metrics struct {
	starts     metric.Int64Counter
	polls      metric.Int64Counter
	stops      metric.Int64Counter
	submitWait metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter("slurmspawn/spawner")

	starts, err := meter.Int64Counter("spawner_starts_total",
		metric.WithDescription("Session start operations by outcome"))
	if err != nil {
		return nil, err
	}

	polls, err := meter.Int64Counter("spawner_polls_total",
		metric.WithDescription("Session liveness polls by result"))
	if err != nil {
		return nil, err
	}

	stops, err := meter.Int64Counter("spawner_stops_total",
		metric.WithDescription("Session stop operations"))
	if err != nil {
		return nil, err
	}

	submitWait, err := meter.Float64Histogram("spawner_submit_wait_seconds",
		metric.WithDescription("Time from submission until the job reached RUNNING"))
	if err != nil {
		return nil, err
	}

	return &metrics{
		starts:     starts,
		polls:      polls,
		stops:      stops,
		submitWait: submitWait,
	}, nil
}

func (m *metrics) recordStart(ctx context.Context, outcome string) {
	m.starts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) recordPoll(ctx context.Context, alive bool) {
	m.polls.Add(ctx, 1, metric.WithAttributes(attribute.Bool("alive", alive)))
}

func (m *metrics) recordStop(ctx context.Context, graceful bool) {
	m.stops.Add(ctx, 1, metric.WithAttributes(attribute.Bool("graceful", graceful)))
}

func (m *metrics) recordSubmitWait(ctx context.Context, seconds float64) {
	m.submitWait.Record(ctx, seconds)
}
