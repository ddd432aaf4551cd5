// Package testutil provides testing utilities for the recipe service.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock provider endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockProvider is a configurable mock recipe-provider server for testing.
type MockProvider struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	PathCounts   map[string]int
	LastQuery    map[string][]string
}

// NewMockProvider creates a new mock provider server.
func NewMockProvider() *MockProvider {
	mock := &MockProvider{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastQuery = r.URL.Query()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockProvider) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockProvider) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastQuery = nil
}

// Requests returns the total request count.
func (m *MockProvider) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// RequestsFor returns the request count for a specific path.
func (m *MockProvider) RequestsFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// SetHandler sets a custom handler for a specific path.
func (m *MockProvider) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockProvider) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(resp.StatusCode)
		fmt.Fprint(w, resp.Body)
	})
}

// SetRecipe configures a recipe-information response for the given id.
func (m *MockProvider) SetRecipe(id int64, body string) {
	m.SetResponse(fmt.Sprintf("/%d/information", id), MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})
}

// FailRecipe configures a failing recipe-information response for the id.
func (m *MockProvider) FailRecipe(id int64, statusCode int) {
	m.SetResponse(fmt.Sprintf("/%d/information", id), MockResponse{
		StatusCode: statusCode,
		Body:       `{"message":"upstream failure"}`,
	})
}

// defaultHandler serves a minimal valid payload for unconfigured paths.
func (m *MockProvider) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{}`)
}

// RecipeJSON builds a provider-shaped recipe payload for tests.
func RecipeJSON(id int64, title string, likes int) string {
	return fmt.Sprintf(`{
		"id": %d,
		"title": %q,
		"readyInMinutes": 25,
		"image": "https://img.example/%d.jpg",
		"aggregateLikes": %d,
		"vegan": false,
		"vegetarian": true,
		"glutenFree": false,
		"servings": 2,
		"instructions": "Mix and cook.",
		"extendedIngredients": [
			{"id": 1, "name": "tomato", "amount": 2, "unit": "", "original": "2 tomatoes"}
		],
		"analyzedInstructions": [
			{"steps": [{"number": 1, "step": "Chop tomatoes."}, {"number": 2, "step": "Cook."}]}
		]
	}`, id, title, id, likes)
}
