package domain_test

import (
	"encoding/json"
	"testing"

	"placedesk/internal/domain"
)

func TestIDUnmarshalNumber(t *testing.T) {
	var p domain.Place
	if err := json.Unmarshal([]byte(`{"id":42,"name":"Cafe"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p.ID != 42 {
		t.Fatalf("unexpected id: got %d want 42", p.ID)
	}
}

func TestIDUnmarshalNumericString(t *testing.T) {
	var p domain.Place
	if err := json.Unmarshal([]byte(`{"id":"42","name":"Cafe"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p.ID != 42 {
		t.Fatalf("unexpected id: got %d want 42", p.ID)
	}
}

func TestIDUnmarshalRejectsGarbage(t *testing.T) {
	var id domain.ID
	if err := json.Unmarshal([]byte(`"abc"`), &id); err == nil {
		t.Fatal("expected error for non-numeric string id")
	}
}

func TestIDMarshalAlwaysNumber(t *testing.T) {
	raw, err := json.Marshal(domain.ID(7))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(raw) != "7" {
		t.Fatalf("expected numeric encoding, got %s", raw)
	}
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user domain.User
		want string
	}{
		{
			"username with first name",
			domain.User{TgID: 1, Username: "alex", FirstName: "Alex"},
			"alex (Alex)",
		},
		{
			"username only",
			domain.User{TgID: 1, Username: "alex"},
			"alex",
		},
		{
			"no username",
			domain.User{TgID: 77},
			"User77",
		},
		{
			"first name equals username",
			domain.User{TgID: 1, Username: "alex", FirstName: "alex"},
			"alex",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.user.DisplayName(); got != test.want {
				t.Errorf("DisplayName() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestFeedItemPayloadID(t *testing.T) {
	place := domain.FeedItem{
		Type:  domain.ItemPlace,
		Place: &domain.Place{ID: 10, Name: "Bar"},
	}
	if got := place.PayloadID(); got != 10 {
		t.Fatalf("place payload id: got %d want 10", got)
	}

	col := domain.FeedItem{
		Type:       domain.ItemCollection,
		Collection: &domain.Collection{ID: 3, Name: "Best bars"},
	}
	if got := col.PayloadID(); got != 3 {
		t.Fatalf("collection payload id: got %d want 3", got)
	}

	var empty domain.FeedItem
	if got := empty.PayloadID(); got != 0 {
		t.Fatalf("empty payload id: got %d want 0", got)
	}
}
