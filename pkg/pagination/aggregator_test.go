package pagination

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/Sternrassler/logistics-converter/internal/testutil"
	"github.com/Sternrassler/logistics-converter/pkg/client"
	"github.com/Sternrassler/logistics-converter/pkg/logging"
)

// fakeFetcher serves page bodies from a map and records requested URLs.
type fakeFetcher struct {
	pages     map[string]string
	errs      map[string]error
	requested []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	f.requested = append(f.requested, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", url)
	}
	return []byte(body), nil
}

func ids(t *testing.T, agg *Aggregator, fetcher *fakeFetcher, start string) []string {
	t.Helper()
	tbl, err := agg.FetchAll(context.Background(), start)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	var out []string
	for _, rec := range tbl.Rows() {
		v, _ := rec.Get("id")
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func TestFetchAll_ThreePages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://api/p1": `{"next": "http://api/p2", "results": [{"id": 1}, {"id": 2}]}`,
		"http://api/p2": `{"next": "http://api/p3", "results": [{"id": 3}]}`,
		"http://api/p3": `{"next": null, "results": [{"id": 4}, {"id": 5}, {"id": 6}]}`,
	}}
	agg := NewAggregator(fetcher, DefaultConfig())

	got := ids(t, agg, fetcher, "http://api/p1")

	if want := []string{"1", "2", "3", "4", "5", "6"}; !reflect.DeepEqual(got, want) {
		t.Errorf("row ids = %v, want %v", got, want)
	}
	if want := []string{"http://api/p1", "http://api/p2", "http://api/p3"}; !reflect.DeepEqual(fetcher.requested, want) {
		t.Errorf("requested = %v, want %v", fetcher.requested, want)
	}
	if agg.Pages() != 3 {
		t.Errorf("Pages() = %d, want 3", agg.Pages())
	}
}

func TestFetchAll_SinglePageWithoutNext(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://api/only": `{"results": [{"id": "a"}]}`,
	}}

	got := ids(t, NewAggregator(fetcher, DefaultConfig()), fetcher, "http://api/only")

	if want := []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("row ids = %v, want %v", got, want)
	}
}

func TestFetchAll_EmptyPages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://api/p1": `{"next": "http://api/p2", "results": []}`,
		"http://api/p2": `{"next": null, "results": []}`,
	}}

	tbl, err := NewAggregator(fetcher, DefaultConfig()).FetchAll(context.Background(), "http://api/p1")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if tbl.Len() != 0 || len(tbl.Columns()) != 0 {
		t.Errorf("expected empty table, got %d rows, columns %v", tbl.Len(), tbl.Columns())
	}
}

func TestFetchAll_RelativeNext(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://api/logistics/":        `{"next": "?page=2", "results": [{"id": 1}]}`,
		"http://api/logistics/?page=2": `{"next": "/logistics/?page=3", "results": [{"id": 2}]}`,
		"http://api/logistics/?page=3": `{"next": null, "results": [{"id": 3}]}`,
	}}

	got := ids(t, NewAggregator(fetcher, DefaultConfig()), fetcher, "http://api/logistics/")

	if want := []string{"1", "2", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("row ids = %v, want %v", got, want)
	}
}

func TestFetchAll_Errors(t *testing.T) {
	fetchErr := errors.New("connection reset")

	tests := []struct {
		name      string
		pages     map[string]string
		errs      map[string]error
		config    Config
		wantErr   error
		wantCalls int
	}{
		{
			name: "fetch error on second page",
			pages: map[string]string{
				"http://api/p1": `{"next": "http://api/p2", "results": [{"id": 1}]}`,
			},
			errs:      map[string]error{"http://api/p2": fetchErr},
			wantErr:   fetchErr,
			wantCalls: 2,
		},
		{
			name: "malformed second page",
			pages: map[string]string{
				"http://api/p1": `{"next": "http://api/p2", "results": [{"id": 1}]}`,
				"http://api/p2": `{"detail": "oops"}`,
			},
			wantErr:   ErrMalformedPage,
			wantCalls: 2,
		},
		{
			name: "empty next link",
			pages: map[string]string{
				"http://api/p1": `{"next": "", "results": [{"id": 1}]}`,
			},
			wantErr:   ErrMalformedPage,
			wantCalls: 1,
		},
		{
			name: "loop back to first page",
			pages: map[string]string{
				"http://api/p1": `{"next": "http://api/p2", "results": [{"id": 1}]}`,
				"http://api/p2": `{"next": "http://api/p1", "results": [{"id": 2}]}`,
			},
			wantErr:   ErrPaginationLoop,
			wantCalls: 2,
		},
		{
			name: "page limit",
			pages: map[string]string{
				"http://api/p1": `{"next": "http://api/p2", "results": [{"id": 1}]}`,
				"http://api/p2": `{"next": "http://api/p3", "results": [{"id": 2}]}`,
				"http://api/p3": `{"next": null, "results": [{"id": 3}]}`,
			},
			config:    Config{MaxPages: 2},
			wantErr:   ErrTooManyPages,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{pages: tt.pages, errs: tt.errs}

			tbl, err := NewAggregator(fetcher, tt.config).FetchAll(context.Background(), "http://api/p1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FetchAll error = %v, want %v", err, tt.wantErr)
			}
			if tbl != nil {
				t.Error("no partial table should be returned on error")
			}
			if len(fetcher.requested) != tt.wantCalls {
				t.Errorf("fetch calls = %d, want %d", len(fetcher.requested), tt.wantCalls)
			}
		})
	}
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://api/p1": `{"next": null, "results": []}`,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(fetcher, DefaultConfig()).FetchAll(ctx, "http://api/p1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(fetcher.requested) != 0 {
		t.Errorf("no page should be fetched after cancellation, got %v", fetcher.requested)
	}
}

func TestFetchAll_WithAPIClient(t *testing.T) {
	mock := testutil.NewMockAPI("secret")
	defer mock.Close()
	mock.SetPages(
		`[{"id": 1, "DurationText": "1 hour"}, {"id": 2}]`,
		`[{"id": 3}]`,
		`[{"id": 4}, {"id": 5}, {"id": 6}]`,
	)

	apiClient, err := client.New(client.DefaultConfig("secret"))
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	defer apiClient.Close()

	tbl, err := NewAggregator(apiClient, DefaultConfig()).FetchAll(context.Background(), mock.StartURL())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if tbl.Len() != 6 {
		t.Errorf("rows = %d, want 6", tbl.Len())
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("requests = %d, want exactly 3", mock.GetRequestCount())
	}
	wantURLs := []string{"/logistics/", "/logistics/?page=2", "/logistics/?page=3"}
	if got := mock.GetRequestedURLs(); !reflect.DeepEqual(got, wantURLs) {
		t.Errorf("requested URLs = %v, want %v", got, wantURLs)
	}
}

func TestFetchAll_LogLevels(t *testing.T) {
	pages := map[string]string{
		"http://api/p1": `{"next": "http://api/p2", "results": [{"id": 1}]}`,
		"http://api/p2": `{"next": null, "results": [{"id": 2}]}`,
	}
	t.Cleanup(func() { logging.Setup(logging.DefaultConfig()) })

	tests := []struct {
		level     logging.LogLevel
		wantPages int
	}{
		{logging.LevelInfo, 0},
		{logging.LevelDebug, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := &bytes.Buffer{}
			logging.Setup(logging.Config{Level: tt.level, Output: buf})
			agg := NewAggregator(&fakeFetcher{pages: pages}, DefaultConfig())

			ctx := logging.WithRunID(context.Background(), "run-7")
			if _, err := agg.FetchAll(ctx, "http://api/p1"); err != nil {
				t.Fatalf("FetchAll failed: %v", err)
			}

			out := buf.String()
			if got := strings.Count(out, "Page fetched"); got != tt.wantPages {
				t.Errorf("Page fetched lines = %d, want %d", got, tt.wantPages)
			}
			if !strings.Contains(out, "Reading data") || !strings.Contains(out, "Fetch complete") {
				t.Errorf("run milestones should log at info, got %q", out)
			}
			for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
				if !strings.Contains(line, `"run_id":"run-7"`) {
					t.Errorf("line without run_id: %s", line)
				}
			}
		})
	}
}
