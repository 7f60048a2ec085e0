package database

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := New(context.Background(), dbPath, slog.Default())
	if err != nil {
		t.Fatalf("new database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})

	return db
}

func TestRecordAndListActions(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if err := db.RecordAction(ctx, 100, "toggle_role", "user", "5", "USER -> ADMIN"); err != nil {
		t.Fatalf("record action: %v", err)
	}
	if err := db.RecordAction(ctx, 100, "feed_save", "feed", "", "3 items"); err != nil {
		t.Fatalf("record action: %v", err)
	}

	entries, err := db.RecentActions(ctx, 10)
	if err != nil {
		t.Fatalf("recent actions: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].Action != "feed_save" || entries[1].Action != "toggle_role" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Action, entries[1].Action)
	}

	if entries[1].Detail != "USER -> ADMIN" {
		t.Fatalf("unexpected detail: %q", entries[1].Detail)
	}
}

func TestRecordActionRequiresAction(t *testing.T) {
	db := newTestDatabase(t)

	if err := db.RecordAction(context.Background(), 1, "  ", "user", "1", ""); err == nil {
		t.Fatal("expected error for empty action")
	}
}

func TestKnownAdmins(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if err := db.UpsertKnownAdmin(ctx, 10, 100, "alex"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.UpsertKnownAdmin(ctx, 20, 200, "kim"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Upsert is idempotent per chat.
	if err := db.UpsertKnownAdmin(ctx, 10, 100, "alex_renamed"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	chatIDs, err := db.KnownAdminChatIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(chatIDs) != 2 {
		t.Fatalf("expected 2 admin chats, got %v", chatIDs)
	}

	if err = db.RemoveKnownAdmin(ctx, 10); err != nil {
		t.Fatalf("remove: %v", err)
	}

	chatIDs, err = db.KnownAdminChatIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(chatIDs) != 1 || chatIDs[0] != 20 {
		t.Fatalf("expected only chat 20, got %v", chatIDs)
	}
}
