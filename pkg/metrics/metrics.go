// Package metrics holds the Prometheus registry shared by the converter and
// pushes run metrics to a Pushgateway.
// All metrics are defined in their respective packages (client, cache,
// pagination, converter) to avoid circular dependencies.
//
// A conversion is a batch job that exits before any scrape, so results are
// pushed once at the end of a run instead of being served.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job label used by the CLI.
const DefaultJob = "logistics_converter"

// Registry is the default Prometheus registry used by the converter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered in Registry.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Push sends every gathered metric to the Pushgateway at gatewayURL, replacing
// the metrics previously pushed for job.
func Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return fmt.Errorf("pushgateway url is required")
	}
	if job == "" {
		job = DefaultJob
	}

	if err := push.New(gatewayURL, job).Gatherer(Gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - logistics_requests_total{endpoint, status} (Counter): Requests by path and HTTP status
//   - logistics_request_duration_seconds{endpoint} (Histogram): Request duration by path
//   - logistics_errors_total{class} (Counter): Errors by class (client, server, network, unexpected)
//
// Cache Metrics (pkg/cache):
//   - logistics_cache_hits_total (Counter): Pages served from Redis
//   - logistics_cache_misses_total (Counter): Cache lookups without an entry
//   - logistics_304_responses_total (Counter): 304 Not Modified responses
//   - logistics_conditional_requests_total (Counter): Requests sent with If-None-Match / If-Modified-Since
//   - logistics_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pagination Metrics (pkg/pagination):
//   - logistics_pages_fetched_total (Counter): Pages fetched and decoded
//
// Run Metrics (pkg/converter):
//   - logistics_parse_misses_total{field} (Counter): Records without a derived value, by source field
//   - logistics_rows_written (Gauge): Rows written by the last run
//   - logistics_run_duration_seconds (Histogram): Full run duration
//
// Example Prometheus Queries:
//
//   # Share of records without a parsable duration in the last run
//   logistics_parse_misses_total{field="DurationText"} / logistics_rows_written
//
//   # Cache effectiveness
//   logistics_304_responses_total / logistics_conditional_requests_total
//
//   # Runs that wrote nothing
//   logistics_rows_written == 0
