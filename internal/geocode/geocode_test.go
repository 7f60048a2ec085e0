package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesResults(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("missing User-Agent, got %q", r.Header.Get("User-Agent"))
		}
		gotQuery = r.URL.Query().Get("q")

		_, _ = w.Write([]byte(`[
			{"display_name":"Nevsky Prospekt, St Petersburg","lat":"59.9343","lon":"30.3351"},
			{"display_name":"broken","lat":"not-a-number","lon":"0"}
		]`))
	}))
	defer server.Close()

	client := New(server.URL)

	results, err := client.Search(context.Background(), "Nevsky")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if gotQuery != "Nevsky" {
		t.Fatalf("unexpected forwarded query %q", gotQuery)
	}

	// The unparsable row is skipped, not fatal.
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.Label != "Nevsky Prospekt, St Petersburg" || got.Lat != 59.9343 || got.Lon != 30.3351 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	client := New("http://invalid.example")

	results, err := client.Search(context.Background(), "   ")
	if err != nil || results != nil {
		t.Fatalf("expected no-op for empty query, got %v / %v", results, err)
	}
}

func TestReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lon") == "" {
			t.Error("missing coordinates in query")
		}

		_, _ = w.Write([]byte(`{"display_name":"Rubinstein St 1","lat":"59.93","lon":"30.34"}`))
	}))
	defer server.Close()

	client := New(server.URL)

	result, err := client.Reverse(context.Background(), 59.93, 30.34)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if result.Label != "Rubinstein St 1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSearchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := New(server.URL).Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}
