package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"placedesk/internal/domain"
	"placedesk/internal/geocode"
	"placedesk/internal/markdown"
	"placedesk/internal/photo"

	"mvdan.cc/xurls/v2"
)

const maxDraftPhotos = 5

// placeDraft accumulates a place across several messages: the text line,
// then optionally a location and photos, until /submit_place.
type placeDraft struct {
	place  domain.Place
	photos [][]byte
}

func (b *Bot) draft(chatID int64) *placeDraft {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.drafts[chatID]
}

func (b *Bot) setDraft(chatID int64, draft *placeDraft) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if draft == nil {
		delete(b.drafts, chatID)
		return
	}

	b.drafts[chatID] = draft
}

func (b *Bot) setDraftCoordinates(chatID int64, lat, lon float64, reverse *geocode.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	draft := b.drafts[chatID]
	if draft == nil {
		return
	}

	draft.place.Coordinates = &domain.Coordinates{Lat: lat, Lng: lon}

	if draft.place.Address == "" && reverse != nil {
		draft.place.Address = reverse.Label
	}
}

func (b *Bot) addDraftPhoto(chatID int64, data []byte) error {
	compressed, err := photo.Compress(data, photo.DefaultMaxBytes)
	if err != nil {
		return fmt.Errorf("compress photo: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	draft := b.drafts[chatID]
	if draft == nil {
		return errors.New("no draft place")
	}

	if len(draft.photos) >= maxDraftPhotos {
		return fmt.Errorf("draft already has %d photos", maxDraftPhotos)
	}

	draft.photos = append(draft.photos, compressed)

	return nil
}

// handleAddPlaceCommand starts a draft from a "Name | Address |
// Description" line. Website URLs inside the description are picked out
// and stored on their own field.
func (b *Bot) handleAddPlaceCommand(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ Usage: `/add_place Name | Address | Description`\\.",
			b.returnKeyboard,
		)
	}

	parts := strings.SplitN(args, "|", 3)

	place := domain.Place{
		Name:   strings.TrimSpace(parts[0]),
		Status: domain.StatusPending,
	}
	if len(parts) > 1 {
		place.Address = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		place.Description = strings.TrimSpace(parts[2])
	}

	if place.Name == "" {
		return b.sendMessageWithKeyboard(chatID, "✖️ Place name is empty\\.", b.returnKeyboard)
	}

	if url := xurls.Relaxed().FindString(place.Description); url != "" {
		place.Website = url
	}

	b.setDraft(chatID, &placeDraft{place: place})

	b.log.InfoContext(ctx, "Started place draft",
		"chatID", chatID,
		"name", place.Name)

	return b.sendDraftSummary(chatID)
}

func (b *Bot) handleSubmitPlaceCommand(ctx context.Context, chatID int64, userID int64) error {
	draft := b.draft(chatID)
	if draft == nil {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ No draft place\\. Start one with /add\\_place first\\.",
			b.returnKeyboard,
		)
	}

	created, err := b.client.CreatePlace(ctx, draft.place)
	if err != nil {
		errs := []error{fmt.Errorf("create place: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	var errs []error

	for i, data := range draft.photos {
		main := i == 0

		if err := b.client.UploadPlacePhoto(ctx, created.ID, data, fmt.Sprintf("photo_%d.jpg", i+1), main); err != nil {
			errs = append(errs, fmt.Errorf("upload photo %d: %w", i+1, err))
		}
	}

	b.setDraft(chatID, nil)

	if err := b.db.RecordAction(ctx, userID, "create", "place", created.ID.String(), created.Name); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", "create",
			"entityType", "place")
	}

	if len(errs) > 0 {
		if sendErr := b.sendMessageWithKeyboard(
			chatID,
			fmt.Sprintf("⚠️ Place *%s* is created, but some photos failed\\.", markdown.Escape(created.Name)),
			b.returnKeyboard,
		); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.sendMessageWithKeyboard(
		chatID,
		fmt.Sprintf("✅ Place *%s* is submitted for moderation\\.", markdown.Escape(created.Name)),
		b.returnKeyboard,
	)
}

func (b *Bot) handleCancelPlaceCommand(chatID int64) error {
	if b.draft(chatID) == nil {
		return b.sendMessageWithKeyboard(chatID, "✖️ No draft place\\.", b.returnKeyboard)
	}

	b.setDraft(chatID, nil)

	return b.sendMessageWithKeyboard(chatID, "✅ Draft is discarded\\.", b.returnKeyboard)
}

func (b *Bot) sendDraftSummary(chatID int64) error {
	draft := b.draft(chatID)
	if draft == nil {
		return nil
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📋 Draft place: %s\n", draft.place.Name))

	if draft.place.Address != "" {
		message.WriteString(fmt.Sprintf("Address: %s\n", draft.place.Address))
	}
	if draft.place.Website != "" {
		message.WriteString(fmt.Sprintf("Website: %s\n", draft.place.Website))
	}
	if coords := draft.place.Coordinates; coords != nil {
		message.WriteString(fmt.Sprintf("Coordinates: %.5f, %.5f\n", coords.Lat, coords.Lng))
	} else {
		message.WriteString("Coordinates: send a location or an address to pin them\n")
	}
	message.WriteString(fmt.Sprintf("Photos: %d\n", len(draft.photos)))

	message.WriteString("\nSend photos to attach them, then /submit_place or /cancel_place.")

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}
