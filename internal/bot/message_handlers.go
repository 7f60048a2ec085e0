package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"placedesk/internal/geocode"
	"placedesk/internal/markdown"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxGeocodeCandidates = 5

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	return b.withSpinner(ctx, message.Chat.ID, func() error {
		if message.Location != nil {
			return b.handleLocation(ctx, message)
		}

		if len(message.Photo) > 0 {
			return b.handlePhoto(ctx, message)
		}

		text := strings.TrimSpace(message.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			return b.handleStartCommand(ctx, message.Chat.ID, message.From)
		case strings.HasPrefix(text, "/menu"):
			return b.handleMenuCommand(message.Chat.ID)
		case strings.HasPrefix(text, "/all_users"):
			return b.handleAllUsersCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/secret_admin"):
			return b.handleSecretAdminCommand(ctx, message.Chat.ID, message.From)
		case strings.HasPrefix(text, "/feed"):
			return b.handleFeedCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/pending_places"):
			return b.handlePendingPlacesCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/pending_reviews"):
			return b.handlePendingReviewsCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/categories"):
			return b.handleCategoriesCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/add_category"):
			return b.handleAddCategoryCommand(ctx, message.Chat.ID, message.From.ID, commandArgument(text, "/add_category"))
		case strings.HasPrefix(text, "/tags"):
			return b.handleTagsCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/places"):
			return b.handlePlacesCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/place"):
			return b.handlePlaceDetailCommand(ctx, message.Chat.ID, commandArgument(text, "/place"))
		case strings.HasPrefix(text, "/collections"):
			return b.handleCollectionsCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/profile"):
			return b.handleProfileCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/audit"):
			return b.handleAuditCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/add_place"):
			return b.handleAddPlaceCommand(ctx, message.Chat.ID, commandArgument(text, "/add_place"))
		case strings.HasPrefix(text, "/submit_place"):
			return b.handleSubmitPlaceCommand(ctx, message.Chat.ID, message.From.ID)
		case strings.HasPrefix(text, "/cancel_place"):
			return b.handleCancelPlaceCommand(message.Chat.ID)
		case strings.HasPrefix(text, "/digest_on"):
			return b.handleDigestOnCommand(ctx, message.Chat.ID, message.From)
		case strings.HasPrefix(text, "/digest_off"):
			return b.handleDigestOffCommand(ctx, message.Chat.ID)
		case strings.HasPrefix(text, "/"):
			return b.sendMessageWithKeyboard(
				message.Chat.ID,
				"✖️ Command is not recognized\\.",
				b.menuKeyboard,
			)
		default:
			return b.handleFreeText(ctx, message.Chat.ID, text)
		}
	})
}

func commandArgument(text, command string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, command))
}

// handleFreeText treats any non-command text as an address lookup. The
// per-chat searcher debounces rapid consecutive messages so only the
// last one reaches the geocoder.
func (b *Bot) handleFreeText(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return b.handleMenuCommand(chatID)
	}

	done := make(chan error, 1)

	b.searcher(chatID).Search(ctx, text, func(results []geocode.Result, err error) {
		done <- b.sendGeocodeCandidates(chatID, text, results, err)
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Superseded by a newer message or timed out.
		return nil
	}
}

func (b *Bot) sendGeocodeCandidates(
	chatID int64,
	query string,
	results []geocode.Result,
	err error,
) error {
	if err != nil {
		errs := []error{fmt.Errorf("search address: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(results) == 0 {
		return b.sendMessageWithKeyboard(
			chatID,
			fmt.Sprintf("✖️ No matches for *%s*\\.", markdown.Escape(query)),
			b.returnKeyboard,
		)
	}

	if len(results) > maxGeocodeCandidates {
		results = results[:maxGeocodeCandidates]
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("🔍 Found %d candidate(s):\n\n", len(results)))

	for i, result := range results {
		message.WriteString(fmt.Sprintf(
			"%d. %s\n    %.5f, %.5f\n",
			i+1,
			result.Label,
			result.Lat,
			result.Lon,
		))
	}

	keyboard := b.returnKeyboard
	if b.draft(chatID) != nil {
		keyboard = append(coordinatePickKeyboard(results), b.returnKeyboard...)
		message.WriteString("\nPick one to pin the draft place:")
	}

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), keyboard)
}

func coordinatePickKeyboard(results []geocode.Result) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for i, result := range results {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📍 Use %d", i+1),
				fmt.Sprintf("geo_use:%.5f:%.5f", result.Lat, result.Lon),
			),
		})
	}

	return keyboard
}

func (b *Bot) handleLocation(ctx context.Context, message *tgbotapi.Message) error {
	lat := message.Location.Latitude
	lon := message.Location.Longitude

	result, err := b.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		b.log.WarnContext(ctx, "Failed to reverse geocode location",
			"error", err,
			"lat", lat,
			"lon", lon)
	}

	if draft := b.draft(message.Chat.ID); draft != nil {
		b.setDraftCoordinates(message.Chat.ID, lat, lon, result)

		return b.sendDraftSummary(message.Chat.ID)
	}

	if result == nil {
		return b.sendMessageWithKeyboard(message.Chat.ID, "✖️ Address is not found\\.", b.returnKeyboard)
	}

	return b.sendPlainMessageWithKeyboard(
		message.Chat.ID,
		fmt.Sprintf("📍 %s\n%.5f, %.5f", result.Label, result.Lat, result.Lon),
		b.returnKeyboard,
	)
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) error {
	caption := strings.TrimSpace(message.Caption)

	if name, ok := strings.CutPrefix(caption, "/add_tag"); ok {
		return b.handleAddTagPhoto(ctx, message, strings.TrimSpace(name))
	}

	if b.draft(message.Chat.ID) == nil {
		return b.sendMessageWithKeyboard(
			message.Chat.ID,
			"✖️ No draft place\\. Start one with /add\\_place first\\.",
			b.returnKeyboard,
		)
	}

	data, err := b.downloadLargestPhoto(ctx, message.Photo)
	if err != nil {
		errs := []error{fmt.Errorf("download photo: %w", err)}

		sendErr := b.sendMessageWithKeyboard(message.Chat.ID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if err := b.addDraftPhoto(message.Chat.ID, data); err != nil {
		errs := []error{fmt.Errorf("add draft photo: %w", err)}

		sendErr := b.sendMessageWithKeyboard(message.Chat.ID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.sendDraftSummary(message.Chat.ID)
}

func (b *Bot) handleAddTagPhoto(ctx context.Context, message *tgbotapi.Message, name string) error {
	if name == "" {
		return b.sendMessageWithKeyboard(
			message.Chat.ID,
			"✖️ Usage: attach an icon with caption `/add_tag <name>`\\.",
			b.returnKeyboard,
		)
	}

	data, err := b.downloadLargestPhoto(ctx, message.Photo)
	if err != nil {
		errs := []error{fmt.Errorf("download photo: %w", err)}

		sendErr := b.sendMessageWithKeyboard(message.Chat.ID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	tag, err := b.client.CreateTag(ctx, name, data, "icon.jpg")
	if err != nil {
		errs := []error{fmt.Errorf("create tag: %w", err)}

		sendErr := b.sendMessageWithKeyboard(message.Chat.ID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if err := b.db.RecordAction(ctx, message.From.ID, "create", "tag", tag.ID.String(), tag.Name); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", "create",
			"entityType", "tag")
	}

	return b.sendMessageWithKeyboard(
		message.Chat.ID,
		fmt.Sprintf("✅ Tag *%s* is created\\.", markdown.Escape(tag.Name)),
		b.returnKeyboard,
	)
}

func (b *Bot) downloadLargestPhoto(ctx context.Context, sizes []tgbotapi.PhotoSize) ([]byte, error) {
	if len(sizes) == 0 {
		return nil, errors.New("message has no photo sizes")
	}

	// Telegram orders sizes smallest first.
	fileID := sizes[len(sizes)-1].FileID

	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			b.log.WarnContext(ctx, "Failed to close response body",
				"error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return data, nil
}
