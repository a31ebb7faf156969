package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Sternrassler/logistics-converter/pkg/logging"
	"github.com/Sternrassler/logistics-converter/pkg/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// ErrPaginationLoop is returned when a next link points back to a page
	// that was already fetched.
	ErrPaginationLoop = errors.New("pagination loop detected")

	// ErrTooManyPages is returned when the walk exceeds Config.MaxPages.
	ErrTooManyPages = errors.New("page limit exceeded")
)

var pagesFetched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "logistics_pages_fetched_total",
	Help: "Total number of logistics pages fetched and decoded",
})

// PageFetcher fetches the raw body of a single page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// Config holds aggregator configuration.
type Config struct {
	// MaxPages caps the number of pages fetched, 0 means unlimited
	MaxPages int
}

// DefaultConfig returns the default configuration (no page limit).
func DefaultConfig() Config {
	return Config{}
}

// Aggregator follows next links one page at a time.
type Aggregator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
	pages   int
}

// NewAggregator creates a new aggregator.
func NewAggregator(fetcher PageFetcher, config Config) *Aggregator {
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("pagination"),
	}
}

// FetchAll fetches startURL and every page reachable through next links,
// appending results in page order. Any fetch or decode error aborts the walk
// and no table is returned.
func (a *Aggregator) FetchAll(ctx context.Context, startURL string) (*table.Table, error) {
	start := time.Now()
	result := table.New()
	visited := make(map[string]struct{})
	a.pages = 0
	logger := logging.FromContext(ctx, a.logger)

	logger.Info().Str("url", startURL).Msg("Reading data")

	current := startURL
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, seen := visited[current]; seen {
			return nil, fmt.Errorf("%w: %s", ErrPaginationLoop, current)
		}
		if a.config.MaxPages > 0 && len(visited) >= a.config.MaxPages {
			return nil, fmt.Errorf("%w: more than %d pages", ErrTooManyPages, a.config.MaxPages)
		}
		visited[current] = struct{}{}

		data, err := a.fetcher.FetchPage(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d (%s): %w", len(visited), current, err)
		}

		page, err := DecodePage(data)
		if err != nil {
			return nil, fmt.Errorf("decode page %d (%s): %w", len(visited), current, err)
		}

		result.Append(page.Results...)
		a.pages++
		pagesFetched.Inc()

		logger.Debug().
			Int("page", a.pages).
			Int("results", len(page.Results)).
			Int("rows", result.Len()).
			Bool("has_next", page.HasNext).
			Msg("Page fetched")

		if !page.HasNext {
			break
		}
		next, err := resolveNext(current, page.Next)
		if err != nil {
			return nil, fmt.Errorf("decode page %d (%s): %w", len(visited), current, err)
		}
		current = next
	}

	logger.Info().
		Int("pages", a.pages).
		Int("rows", result.Len()).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return result, nil
}

// resolveNext resolves a next link against the page it came from, so
// relative links work as well as absolute ones.
func resolveNext(current, next string) (string, error) {
	if next == "" {
		return "", fmt.Errorf("%w: empty %q link", ErrMalformedPage, NextField)
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("%w: parse page url: %v", ErrMalformedPage, err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q link: %v", ErrMalformedPage, NextField, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Pages returns the number of pages fetched by the last FetchAll call.
func (a *Aggregator) Pages() int {
	return a.pages
}
