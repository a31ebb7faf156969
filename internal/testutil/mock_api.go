// Package testutil provides testing utilities for the logistics converter.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PagesPath is the path under which MockAPI serves the paginated listing.
const PagesPath = "/logistics/"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the paginated logistics API.
// Page n (1-based) is served at PagesPath for n == 1 and at
// PagesPath?page=n otherwise; each page links to the next one.
type MockAPI struct {
	server   *httptest.Server
	token    string
	mu       sync.RWMutex
	pages    []string
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	ConditionalCount  int
	RequestedURLs     []string
	LastRequestHeader http.Header
}

// NewMockAPI creates a mock server that requires "Authorization: Token <token>".
func NewMockAPI(token string) *MockAPI {
	mock := &MockAPI{
		token:    token,
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.RequestedURLs = append(mock.RequestedURLs, r.URL.RequestURI())
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.RequestURI()]
		mock.mu.Unlock()

		if r.Header.Get("Authorization") != "Token "+mock.token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Invalid token."}`))
			return
		}

		if exists {
			handler(w, r)
			return
		}

		mock.pagesHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// StartURL returns the URL of the first page.
func (m *MockAPI) StartURL() string {
	return m.server.URL + PagesPath
}

// PageURL returns the URL of page n (1-based).
func (m *MockAPI) PageURL(n int) string {
	if n <= 1 {
		return m.StartURL()
	}
	return fmt.Sprintf("%s?page=%d", m.StartURL(), n)
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.RequestedURLs = nil
	m.LastRequestHeader = nil
}

// SetPages configures the paginated listing. Each argument is the JSON array
// used as the "results" of one page, e.g. `[{"DurationText": "45 mins"}]`.
func (m *MockAPI) SetPages(results ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append([]string(nil), results...)
}

// SetHandler sets a custom handler for a request URI (path plus query).
func (m *MockAPI) SetHandler(requestURI string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[requestURI] = handler
}

// SetResponse configures a fixed response for a request URI.
func (m *MockAPI) SetResponse(requestURI string, resp MockResponse) {
	m.SetHandler(requestURI, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetRequestedURLs returns the request URIs in arrival order.
func (m *MockAPI) GetRequestedURLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.RequestedURLs...)
}

// pagesHandler serves the configured pages with ETag revalidation.
func (m *MockAPI) pagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PagesPath {
		http.NotFound(w, r)
		return
	}

	n := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		if n, err = strconv.Atoi(p); err != nil || n < 1 {
			http.Error(w, `{"detail": "Invalid page."}`, http.StatusNotFound)
			return
		}
	}

	m.mu.RLock()
	total := len(m.pages)
	var results string
	if n <= total {
		results = m.pages[n-1]
	}
	m.mu.RUnlock()

	if n > total {
		http.Error(w, `{"detail": "Invalid page."}`, http.StatusNotFound)
		return
	}

	etag := fmt.Sprintf(`"page-%d-%d"`, n, len(results))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	next := "null"
	if n < total {
		next = strconv.Quote(m.PageURL(n + 1))
	}

	var body strings.Builder
	fmt.Fprintf(&body, `{"count": %d, "next": %s, "previous": null, "results": %s}`, total, next, results)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body.String()))
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewPageResponse creates a 200 response carrying a raw page body.
func NewPageResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
