// Package testutil provides a mock PokeAPI server for client tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// APIPrefix is the path prefix the mock serves the catalog under.
const APIPrefix = "/api/v2/"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPokeAPI is a configurable mock PokeAPI server for testing.
type MockPokeAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	Requests          []string
}

// NewMockPokeAPI creates a new mock server.
func NewMockPokeAPI() *MockPokeAPI {
	mock := &MockPokeAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.Requests = append(mock.Requests, r.URL.RequestURI())

		// Track conditional requests
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		notFound(w)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockPokeAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the catalog root, the equivalent of https://pokeapi.co/api/v2/.
func (m *MockPokeAPI) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.Requests = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockPokeAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockPokeAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
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

// SetResource configures the response for <kind>/<name> and its trailing
// slash variant.
func (m *MockPokeAPI) SetResource(kind, name string, resp MockResponse) {
	m.SetResponse(APIPrefix+kind+"/"+name, resp)
	m.SetResponse(APIPrefix+kind+"/"+name+"/", resp)
}

// SetList serves names as a paginated collection under <kind>/. Results link
// to <kind>/<id>/ with 1-based ids.
func (m *MockPokeAPI) SetList(kind string, names []string) {
	m.SetHandler(APIPrefix+kind+"/", NewListHandler(m.server.URL, kind, names))
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockPokeAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockPokeAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetRequests returns the request URIs in arrival order.
func (m *MockPokeAPI) GetRequests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.Requests...)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not Found"))
}

type listPage struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []listItem `json:"results"`
}

type listItem struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NewListHandler serves names with PokeAPI offset/limit semantics.
func NewListHandler(serverURL, kind string, names []string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset, err := strconv.Atoi(q.Get("offset"))
		if err != nil || offset < 0 {
			offset = 0
		}
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil || limit <= 0 {
			limit = 20
		}

		collection := serverURL + APIPrefix + kind + "/"
		page := listPage{Count: len(names), Results: []listItem{}}
		for i := offset; i < offset+limit && i < len(names); i++ {
			page.Results = append(page.Results, listItem{
				Name: names[i],
				URL:  fmt.Sprintf("%s%d/", collection, i+1),
			})
		}
		if offset+limit < len(names) {
			next := fmt.Sprintf("%s?offset=%d&limit=%d", collection, offset+limit, limit)
			page.Next = &next
		}
		if offset > 0 {
			prev := fmt.Sprintf("%s?offset=%d&limit=%d", collection, max(offset-limit, 0), limit)
			page.Previous = &prev
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(page)
	}
}

// NewFreshResponse creates a 200 OK response that stays fresh for a day.
func NewFreshResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Cache-Control": "public, max-age=86400, s-maxage=86400",
			"ETag":          `W/"fresh-etag"`,
			"Content-Type":  "application/json; charset=utf-8",
		},
	}
}

// NewNoStoreResponse creates a 200 OK response that must not be cached.
func NewNoStoreResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Cache-Control": "no-store",
			"Content-Type":  "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 response like PokeAPI's.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       "Not Found",
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewConditionalHandler creates a handler whose responses are immediately
// stale and that answers 304 when If-None-Match carries the current ETag.
// The returned setter swaps the served representation.
func NewConditionalHandler(etag, data string) (handler func(w http.ResponseWriter, r *http.Request), set func(etag, data string)) {
	var mu sync.Mutex
	current := struct{ etag, data string }{etag, data}

	handler = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		etag, data := current.etag, current.data
		mu.Unlock()

		w.Header().Set("Cache-Control", "max-age=0")
		w.Header().Set("ETag", etag)

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
	set = func(etag, data string) {
		mu.Lock()
		defer mu.Unlock()
		current.etag, current.data = etag, data
	}
	return handler, set
}
