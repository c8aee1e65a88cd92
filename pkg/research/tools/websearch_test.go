package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchWithoutAPIKeyReturnsMocks(t *testing.T) {
	client := NewSerperClient("", nil)

	results, err := client.Search(context.Background(), "go concurrency", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 mocks", len(results))
	}
	first := results[0]
	if first.Title != "Mock result 1 for: go concurrency" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Source != "mock" {
		t.Errorf("Source = %q, want mock", first.Source)
	}
	if first.Content != "This is mocked web content snippet 1 for query: go concurrency." {
		t.Errorf("Content = %q", first.Content)
	}
	if first.URL != "https://example.com/mock/1?q=go concurrency" {
		t.Errorf("URL = %q", first.URL)
	}
}

func TestSearchMockCountRespectsMaxResults(t *testing.T) {
	client := NewSerperClient("", nil)

	results, _ := client.Search(context.Background(), "q", 1)
	if len(results) != 1 {
		t.Errorf("got %d results with maxResults=1, want 1", len(results))
	}

	results, _ = client.Search(context.Background(), "q", 10)
	if len(results) != 3 {
		t.Errorf("got %d results with maxResults=10, want the mock cap of 3", len(results))
	}
}

func TestSearchParsesOrganicResults(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		fmt.Fprint(w, `{
			"organic": [
				{"title": "Go scheduler", "link": "https://go.dev/sched", "snippet": "How goroutines run", "source": "go.dev"},
				{"title": "", "link": "https://x.test", "snippet": "snippet only"},
				{"title": "Extra", "link": "https://extra.test", "snippet": "beyond the cap"}
			]
		}`)
	}))
	defer srv.Close()

	client := NewSerperClient("test-key", nil)
	client.baseURL = srv.URL

	results, err := client.Search(context.Background(), "go scheduler", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("X-API-KEY = %q", gotKey)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want maxResults cap of 2", len(results))
	}
	if results[0].Title != "Go scheduler" || results[0].URL != "https://go.dev/sched" || results[0].Source != "go.dev" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[0].Content != "How goroutines run" {
		t.Errorf("Content = %q, want the snippet", results[0].Content)
	}
	// Fallback chains: missing title uses the snippet, missing source tags serper.
	if results[1].Title != "snippet only" || results[1].Source != "serper" {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestSearchFallsBackToMocksOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewSerperClient("test-key", nil)
	client.baseURL = srv.URL

	results, err := client.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil with mock fallback", err)
	}
	if len(results) != 3 || results[0].Source != "mock" {
		t.Errorf("results = %+v, want mocks", results)
	}
}

func TestSearchFallsBackToMocksOnEmptyOrganic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"organic": []}`)
	}))
	defer srv.Close()

	client := NewSerperClient("test-key", nil)
	client.baseURL = srv.URL

	results, err := client.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 || results[0].Source != "mock" {
		t.Errorf("results = %+v, want mocks", results)
	}
}
