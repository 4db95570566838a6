package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "letterdesk"

// Metrics holds all LetterDesk metric instruments.
type Metrics struct {
	LettersGenerated   metric.Int64Counter
	GenerationFailures metric.Int64Counter
	ReviewRounds       metric.Int64Histogram
	GenerationDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.LettersGenerated, err = meter.Int64Counter("letterdesk.letters.generated",
		metric.WithDescription("Number of letters generated"))
	if err != nil {
		return nil, err
	}

	m.GenerationFailures, err = meter.Int64Counter("letterdesk.letters.failed",
		metric.WithDescription("Number of letter generations that failed"))
	if err != nil {
		return nil, err
	}

	m.ReviewRounds, err = meter.Int64Histogram("letterdesk.panel.rounds",
		metric.WithDescription("Review rounds needed per generation"))
	if err != nil {
		return nil, err
	}

	m.GenerationDuration, err = meter.Float64Histogram("letterdesk.generation.duration_seconds",
		metric.WithDescription("Letter generation duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
