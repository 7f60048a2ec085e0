package initdata

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"
)

func fixedBuilder() *Builder {
	return New(
		WithNow(func() time.Time { return time.Unix(1734972300, 0) }),
		WithQueryID(func() string { return "AAHtestqueryid" }),
	)
}

func TestBuildEnvelopeShape(t *testing.T) {
	b := fixedBuilder()

	got, err := b.Build(User{
		ID:              987654321,
		FirstName:       "Alex",
		LastName:        "Smith",
		Username:        "alexsmith",
		LanguageCode:    "en",
		AllowsWriteToPM: true,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !strings.HasPrefix(got, "tgWebAppData=query_id%3DAAHtestqueryid%26user%3D") {
		t.Fatalf("unexpected envelope prefix: %s", got)
	}

	if !strings.HasSuffix(got, "%26auth_date%3D1734972300") {
		t.Fatalf("unexpected envelope suffix: %s", got)
	}
}

func TestBuildUserRoundTrips(t *testing.T) {
	b := fixedBuilder()

	user := User{
		ID:           524324421,
		FirstName:    "Egor S",
		Username:     "avecoders",
		LanguageCode: "ru",
		IsPremium:    true,
	}

	envelope, err := b.Build(user)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Undo the outer pre-encoded separators, then the value encoding.
	body := strings.TrimPrefix(envelope, "tgWebAppData=")
	body = strings.ReplaceAll(body, "%3D", "=")
	body = strings.ReplaceAll(body, "%26", "&")

	values, err := url.ParseQuery(body)
	if err != nil {
		t.Fatalf("parse envelope body: %v", err)
	}

	var decoded User
	if err := json.Unmarshal([]byte(values.Get("user")), &decoded); err != nil {
		t.Fatalf("unmarshal user payload: %v", err)
	}

	if decoded != user {
		t.Fatalf("user payload mismatch: got %+v want %+v", decoded, user)
	}

	if values.Get("auth_date") != "1734972300" {
		t.Fatalf("unexpected auth_date: %s", values.Get("auth_date"))
	}
}

func TestBuildDefaultsLanguageCode(t *testing.T) {
	b := fixedBuilder()

	envelope, err := b.Build(User{ID: 1})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !strings.Contains(envelope, encodeURIComponent(`"language_code":"en"`)) {
		t.Fatalf("expected defaulted language code in %s", envelope)
	}
}

func TestBuildRequiresUserID(t *testing.T) {
	if _, err := fixedBuilder().Build(User{}); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestRandomQueryIDShape(t *testing.T) {
	b := New(WithNow(time.Now))

	id := b.queryID()
	if !strings.HasPrefix(id, "AAH") {
		t.Fatalf("query id must start with AAH, got %q", id)
	}

	if len(id) != len(queryIDPrefix)+queryIDSuffixLength {
		t.Fatalf("unexpected query id length: %d", len(id))
	}
}

func TestEncodeURIComponentSpaces(t *testing.T) {
	if got := encodeURIComponent("a b"); got != "a%20b" {
		t.Fatalf("spaces must encode as %%20, got %q", got)
	}
}
