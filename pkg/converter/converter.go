// Package converter runs the logistics ETL pipeline: fetch every page,
// derive numeric duration and distance columns, write the table once.
package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/logistics-converter/pkg/logging"
	"github.com/Sternrassler/logistics-converter/pkg/pagination"
	"github.com/Sternrassler/logistics-converter/pkg/parser"
	"github.com/Sternrassler/logistics-converter/pkg/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
)

// Field names of the source records and the derived columns.
const (
	DurationTextField    = "DurationText"
	DistanceTextField    = "DistanceText"
	DurationMinutesField = "DurationMinutes"
	DistanceMetersField  = "DistanceMeters"
)

// Prometheus metrics for pipeline runs.
var (
	parseMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logistics_parse_misses_total",
		Help: "Records whose free-text field yielded no value, by field",
	}, []string{"field"})

	rowsWritten = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logistics_rows_written",
		Help: "Number of rows written by the last run",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "logistics_run_duration_seconds",
		Help:    "Duration of a full conversion run in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Sink persists the final table and reports the number of rows written.
type Sink interface {
	Write(t *table.Table) (int, error)
}

// Result summarises a successful run.
type Result struct {
	RunID    string
	Pages    int
	Rows     int
	Output   string
	Duration time.Duration
}

// Converter wires the fetcher, the derivation step and the sink.
type Converter struct {
	aggregator *pagination.Aggregator
	sink       Sink
	startURL   string
	output     string
	logger     zerolog.Logger
}

// Config holds the pipeline configuration.
type Config struct {
	// StartURL is the first page of the listing
	StartURL string

	// Output names the destination in log messages
	Output string

	// Pagination settings
	Pagination pagination.Config
}

// New creates a converter reading through fetcher and writing to sink.
func New(fetcher pagination.PageFetcher, sink Sink, cfg Config) (*Converter, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if cfg.StartURL == "" {
		return nil, fmt.Errorf("start url is required")
	}

	output := cfg.Output
	if output == "" {
		output = fmt.Sprint(sink)
	}

	return &Converter{
		aggregator: pagination.NewAggregator(fetcher, cfg.Pagination),
		sink:       sink,
		startURL:   cfg.StartURL,
		output:     output,
		logger:     logging.NewLogger("converter"),
	}, nil
}

// Run performs the full cycle. Nothing is written unless every page was
// fetched and decoded.
func (c *Converter) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	runID := uuid.NewV4().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx, c.logger)
	logger.Info().Str("url", c.startURL).Msg("Run started")

	tbl, err := c.aggregator.FetchAll(ctx, c.startURL)
	if err != nil {
		logger.Error().Err(err).Str("url", c.startURL).Msg("Aggregation failed")
		return Result{}, fmt.Errorf("aggregate pages: %w", err)
	}

	TransformContext(ctx, tbl)

	rows, err := c.sink.Write(tbl)
	if err != nil {
		logger.Error().Err(err).Str("output", c.output).Msg("Write failed")
		return Result{}, fmt.Errorf("write output: %w", err)
	}

	res := Result{
		RunID:    runID,
		Pages:    c.aggregator.Pages(),
		Rows:     rows,
		Output:   c.output,
		Duration: time.Since(start),
	}
	rowsWritten.Set(float64(rows))
	runDuration.Observe(res.Duration.Seconds())

	logger.Info().
		Int("pages", res.Pages).
		Int("rows", res.Rows).
		Str("output", res.Output).
		Dur("duration", res.Duration).
		Msgf("%d row(s) saved to %s", res.Rows, res.Output)

	return res, nil
}

// Transform adds the DurationMinutes and DistanceMeters columns. Each row
// is derived on its own; a text that does not parse leaves the value absent.
func Transform(t *table.Table) {
	TransformContext(context.Background(), t)
}

// TransformContext is Transform with parse misses logged under the run id
// carried by ctx.
func TransformContext(ctx context.Context, t *table.Table) {
	logger := logging.FromContext(ctx, logging.NewLogger("converter"))
	t.AddColumn(DurationMinutesField, deriveInt(logger, DurationTextField, parser.DurationMinutes))
	t.AddColumn(DistanceMetersField, deriveInt(logger, DistanceTextField, parser.DistanceMeters))
}

func deriveInt(logger zerolog.Logger, source string, parse func(string) (int, bool)) func(*table.Record) any {
	return func(rec *table.Record) any {
		text, ok := rec.String(source)
		if ok {
			if v, ok := parse(text); ok {
				return v
			}
		}
		parseMisses.WithLabelValues(source).Inc()
		logger.Debug().
			Str("field", source).
			Interface("value", fieldValue(rec, source)).
			Msg("No value derived")
		return nil
	}
}

func fieldValue(rec *table.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}
