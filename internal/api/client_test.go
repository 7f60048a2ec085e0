package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"placedesk/internal/domain"
)

type staticToken string

func (s staticToken) Token(_ context.Context) (string, error) {
	return string(s), nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(server.URL, staticToken("test-init-data"), slog.Default())

	return client, server
}

func TestAuthorizationHeaderAttached(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := client.Users(context.Background()); err != nil {
		t.Fatalf("users: %v", err)
	}

	if gotAuth != "Bearer test-init-data" {
		t.Fatalf("unexpected Authorization header: %q", gotAuth)
	}
}

func TestListEnvelopeVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":1,"name":"Bars"}]`},
		{"data envelope", `{"data":[{"id":1,"name":"Bars"}]}`},
		{"items envelope", `{"items":[{"id":1,"name":"Bars"}]}`},
		{"results envelope", `{"results":[{"id":1,"name":"Bars"}]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(test.body))
			})

			categories, err := client.Categories(context.Background())
			if err != nil {
				t.Fatalf("categories: %v", err)
			}

			if len(categories) != 1 || categories[0].Name != "Bars" {
				t.Fatalf("unexpected categories: %+v", categories)
			}
		})
	}
}

func TestListEnvelopeUnknownShapeFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"stuff":[{"id":1}]}`))
	})

	if _, err := client.Categories(context.Background()); !errors.Is(err, errUnknownEnvelope) {
		t.Fatalf("expected unknown envelope error, got %v", err)
	}
}

func TestFeedNotFoundMeansEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"feed not found"}`))
	})

	items, err := client.Feed(context.Background())
	if err != nil {
		t.Fatalf("expected empty feed, got error: %v", err)
	}

	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestErrorCarriesStatusAndMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"admins only"}`))
	})

	_, err := client.Places(context.Background())

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}

	if apiErr.Status != http.StatusForbidden || apiErr.Message != "admins only" {
		t.Fatalf("unexpected error fields: %+v", apiErr)
	}
}

func TestToggleRoleSendsStringID(t *testing.T) {
	var gotBody map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"id":5,"tg_id":99,"role":"ADMIN"}`))
	})

	user, err := client.ToggleRole(context.Background(), domain.ID(5))
	if err != nil {
		t.Fatalf("toggle role: %v", err)
	}

	if gotBody["user_id"] != "5" {
		t.Fatalf("expected string user_id, got %+v", gotBody)
	}

	if user.Role != domain.RoleAdmin {
		t.Fatalf("unexpected role: %s", user.Role)
	}
}

func TestDeleteCategorySendsIDInBody(t *testing.T) {
	var gotMethod string
	var gotBody map[string]int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteCategory(context.Background(), domain.ID(12)); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	if gotMethod != http.MethodDelete || gotBody["id"] != 12 {
		t.Fatalf("unexpected request: %s %+v", gotMethod, gotBody)
	}
}

func TestCreateTagMultipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}

		if got := r.FormValue("name"); got != "cozy" {
			t.Errorf("unexpected name field: %q", got)
		}

		file, header, err := r.FormFile("icon")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer func() { _ = file.Close() }()
			if header.Filename != "icon.png" {
				t.Errorf("unexpected filename: %q", header.Filename)
			}
		}

		_, _ = w.Write([]byte(`{"id":3,"name":"cozy"}`))
	})

	tag, err := client.CreateTag(context.Background(), "cozy", []byte{1, 2, 3}, "icon.png")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	if tag.ID != 3 {
		t.Fatalf("unexpected tag: %+v", tag)
	}
}

func TestPendingPlacesQuery(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	if _, err := client.PendingPlaces(context.Background()); err != nil {
		t.Fatalf("pending places: %v", err)
	}

	if !strings.Contains(gotQuery, "status=pending") {
		t.Fatalf("expected status filter, got query %q", gotQuery)
	}
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Places(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
