package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuditEntry is one recorded operator action.
type AuditEntry struct {
	ID         int64
	ActorTgID  int64
	Action     string
	EntityType string
	EntityID   string
	Detail     string
	CreatedAt  time.Time
}

// RecordAction appends an entry to the audit trail.
func (d *Database) RecordAction(
	ctx context.Context,
	actorTgID int64,
	action string,
	entityType string,
	entityID string,
	detail string,
) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return errors.New("action is empty")
	}

	query := `insert into audit_log (actor_tg_id, action, entity_type, entity_id, detail)
	values (?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query, actorTgID, action, entityType, entityID, detail)

	return err
}

// RecentActions returns the newest audit entries, newest first.
func (d *Database) RecentActions(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `select id, actor_tg_id, action, entity_type, entity_id, detail, created_at
	from audit_log
	order by id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "RecentActions")
		}
	}()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err = rows.Scan(
			&e.ID,
			&e.ActorTgID,
			&e.Action,
			&e.EntityType,
			&e.EntityID,
			&e.Detail,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return entries, nil
}

// UpsertKnownAdmin remembers a chat that should receive moderation
// digests.
func (d *Database) UpsertKnownAdmin(ctx context.Context, chatID, tgID int64, username string) error {
	query := `insert into known_admins (chat_id, tg_id, username)
	values (?, ?, ?)
	on conflict (chat_id) do update set tg_id = excluded.tg_id, username = excluded.username`

	_, err := d.db.ExecContext(ctx, query, chatID, tgID, strings.TrimSpace(username))

	return err
}

// RemoveKnownAdmin forgets a chat, e.g. after a role was toggled off.
func (d *Database) RemoveKnownAdmin(ctx context.Context, chatID int64) error {
	_, err := d.db.ExecContext(ctx, "delete from known_admins where chat_id = ?", chatID)

	return err
}

// KnownAdminChatIDs lists every chat subscribed to moderation digests.
func (d *Database) KnownAdminChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx, "select chat_id from known_admins")
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "KnownAdminChatIDs")
		}
	}()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err = rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		chatIDs = append(chatIDs, chatID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return chatIDs, nil
}
