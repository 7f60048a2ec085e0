package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"placedesk/internal/domain"
	"placedesk/internal/feed"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	return b.withSpinner(ctx, callback.Message.Chat.ID, func() error {
		chatID := callback.Message.Chat.ID
		data := strings.TrimSpace(callback.Data)

		switch data {
		case "menu":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleMenuCommand(chatID)
			})
		case "menu_feed":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleFeedCommand(ctx, chatID)
			})
		case "menu_places":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handlePlacesCommand(ctx, chatID)
			})
		case "menu_pending_places":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handlePendingPlacesCommand(ctx, chatID)
			})
		case "menu_pending_reviews":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handlePendingReviewsCommand(ctx, chatID)
			})
		case "menu_categories":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleCategoriesCommand(ctx, chatID)
			})
		case "menu_tags":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleTagsCommand(ctx, chatID)
			})
		case "menu_collections":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleCollectionsCommand(ctx, chatID)
			})
		case "menu_users":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleAllUsersCommand(ctx, chatID)
			})
		case "menu_audit":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleAuditCommand(ctx, chatID)
			})

		case "feed_show":
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.sendFeedView(chatID)
			})
		case "feed_edit":
			return b.withEmptyCallbackAnswer(callback, func() error {
				b.editor(chatID).StartEditing()
				return b.sendFeedView(chatID)
			})
		case "feed_save":
			return b.handleFeedSaveQuery(ctx, callback)
		case "feed_add_place":
			return b.handleFeedAddPlaceQuery(ctx, callback)
		case "feed_add_collection":
			return b.handleFeedAddCollectionQuery(ctx, callback)
		}

		if indexStr, ok := strings.CutPrefix(data, "feed_up:"); ok {
			return b.handleFeedMoveQuery(callback, indexStr, b.editor(chatID).MoveUp)
		}
		if indexStr, ok := strings.CutPrefix(data, "feed_down:"); ok {
			return b.handleFeedMoveQuery(callback, indexStr, b.editor(chatID).MoveDown)
		}
		if indexStr, ok := strings.CutPrefix(data, "feed_del:"); ok {
			return b.handleFeedMoveQuery(callback, indexStr, b.editor(chatID).Delete)
		}
		if idStr, ok := strings.CutPrefix(data, "feed_pick_place:"); ok {
			return b.handleFeedPickPlaceQuery(ctx, callback, idStr)
		}
		if idStr, ok := strings.CutPrefix(data, "feed_pick_collection:"); ok {
			return b.handleFeedPickCollectionQuery(ctx, callback, idStr)
		}
		if idStr, ok := strings.CutPrefix(data, "toggle_role:"); ok {
			return b.handleToggleRoleQuery(ctx, callback, idStr)
		}
		if idStr, ok := strings.CutPrefix(data, "place_approve:"); ok {
			return b.handlePlaceModerationQuery(ctx, callback, idStr, domain.StatusApproved)
		}
		if idStr, ok := strings.CutPrefix(data, "place_reject:"); ok {
			return b.handlePlaceModerationQuery(ctx, callback, idStr, domain.StatusRejected)
		}
		if idStr, ok := strings.CutPrefix(data, "review_approve:"); ok {
			return b.handleReviewModerationQuery(ctx, callback, idStr, domain.StatusApproved)
		}
		if idStr, ok := strings.CutPrefix(data, "review_reject:"); ok {
			return b.handleReviewModerationQuery(ctx, callback, idStr, domain.StatusRejected)
		}
		if idStr, ok := strings.CutPrefix(data, "cat_del:"); ok {
			return b.handleDeleteQuery(ctx, callback, idStr, "category",
				b.client.DeleteCategory, b.handleCategoriesCommand)
		}
		if idStr, ok := strings.CutPrefix(data, "tag_del:"); ok {
			return b.handleDeleteQuery(ctx, callback, idStr, "tag",
				b.client.DeleteTag, b.handleTagsCommand)
		}
		if idStr, ok := strings.CutPrefix(data, "place_del:"); ok {
			return b.handleDeleteQuery(ctx, callback, idStr, "place",
				b.client.DeletePlace, b.handlePlacesCommand)
		}
		if idStr, ok := strings.CutPrefix(data, "col_del:"); ok {
			return b.handleDeleteQuery(ctx, callback, idStr, "collection",
				b.client.DeleteCollection, b.handleCollectionsCommand)
		}
		if coords, ok := strings.CutPrefix(data, "geo_use:"); ok {
			return b.handleGeoUseQuery(callback, coords)
		}

		return nil
	})
}

func (b *Bot) handleFeedSaveQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	editor := b.editor(chatID)

	if err := editor.FinishEditing(ctx); err != nil {
		// The session stays in edit mode so the operator can retry.
		return b.errorCallbackAnswer(callback, fmt.Errorf("save feed: %w", err))
	}

	if err := b.db.RecordAction(ctx, callback.From.ID, "save", "feed", "", fmt.Sprintf("%d items", editor.Len())); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", "save",
			"entityType", "feed")
	}

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✅ Feed is saved.")); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return b.sendFeedView(chatID)
}

func (b *Bot) handleFeedMoveQuery(
	callback *tgbotapi.CallbackQuery,
	indexStr string,
	mutate func(int) error,
) error {
	index, err := strconv.Atoi(strings.TrimSpace(indexStr))
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse index: %w", err))
	}

	if err := mutate(index); err != nil {
		if errors.Is(err, feed.ErrViewOnly) {
			if _, sendErr := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✏️ Enter edit mode first.")); sendErr != nil {
				return fmt.Errorf("send request: %w", sendErr)
			}
			return nil
		}

		return b.errorCallbackAnswer(callback, fmt.Errorf("mutate feed: %w", err))
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		return b.sendFeedView(callback.Message.Chat.ID)
	})
}

func (b *Bot) handleFeedAddPlaceQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID

	places, err := b.editor(chatID).AvailablePlaces(ctx)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("list available places: %w", err))
	}

	if len(places) == 0 {
		if _, sendErr := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✖️ Every place is already in the feed.")); sendErr != nil {
			return fmt.Errorf("send request: %w", sendErr)
		}
		return nil
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		return b.sendPlainMessageWithKeyboard(chatID, "➕ Pick a place to add:", placePickerKeyboard(places))
	})
}

func (b *Bot) handleFeedAddCollectionQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID

	collections, err := b.client.Collections(ctx)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("list collections: %w", err))
	}

	if len(collections) == 0 {
		if _, sendErr := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✖️ No collections.")); sendErr != nil {
			return fmt.Errorf("send request: %w", sendErr)
		}
		return nil
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		return b.sendPlainMessageWithKeyboard(chatID, "➕ Pick a collection to add:", collectionPickerKeyboard(collections))
	})
}

func (b *Bot) handleFeedPickPlaceQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	idStr string,
) error {
	id, err := domain.ParseID(strings.TrimSpace(idStr))
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse place id: %w", err))
	}

	place, err := b.client.Place(ctx, id)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("get place: %w", err))
	}

	if err := b.editor(callback.Message.Chat.ID).AddPlace(*place); err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("add place: %w", err))
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		return b.sendFeedView(callback.Message.Chat.ID)
	})
}

func (b *Bot) handleFeedPickCollectionQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	idStr string,
) error {
	id, err := domain.ParseID(strings.TrimSpace(idStr))
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse collection id: %w", err))
	}

	collection, err := b.client.Collection(ctx, id)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("get collection: %w", err))
	}

	if err := b.editor(callback.Message.Chat.ID).AddCollection(ctx, *collection); err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("add collection: %w", err))
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		return b.sendFeedView(callback.Message.Chat.ID)
	})
}

// handleToggleRoleQuery flips one user's role and re-renders the whole
// keyboard from a fresh user list, so the crowns always reflect the
// backend state rather than a stale snapshot.
func (b *Bot) handleToggleRoleQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	idStr string,
) error {
	id, err := domain.ParseID(strings.TrimSpace(idStr))
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse user id: %w", err))
	}

	user, err := b.client.ToggleRole(ctx, id)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("toggle role: %w", err))
	}

	if err := b.db.RecordAction(ctx, callback.From.ID, "toggle_role", "user", id.String(), string(user.Role)); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", "toggle_role",
			"entityType", "user")
	}

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(
		callback.ID,
		fmt.Sprintf("✅ %s is %s now.", user.DisplayName(), user.Role),
	)); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return b.handleAllUsersCommand(ctx, callback.Message.Chat.ID)
}

func (b *Bot) handlePlaceModerationQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	idStr string,
	status domain.ModerationStatus,
) error {
	id, err := domain.ParseID(strings.TrimSpace(idStr))
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse place id: %w", err))
	}

	if err := b.client.SetPlaceStatus(ctx, id, status); err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("set place status: %w", err))
	}

	if err := b.db.RecordAction(ctx, callback.From.ID, string(status), "place", id.String(), ""); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", string(status),
			"entityType", "place")
	}

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✅ Done.")); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return b.handlePendingPlacesCommand(ctx, callback.Message.Chat.ID)
}

func (b *Bot) handleReviewModerationQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	idStr string,
	status domain.ModerationStatus,
) error {
	id, err := domain.ParseID(strings.TrimSpace(idStr))
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse review id: %w", err))
	}

	if err := b.client.SetReviewStatus(ctx, id, status); err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("set review status: %w", err))
	}

	if err := b.db.RecordAction(ctx, callback.From.ID, string(status), "review", id.String(), ""); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", string(status),
			"entityType", "review")
	}

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✅ Done.")); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return b.handlePendingReviewsCommand(ctx, callback.Message.Chat.ID)
}

func (b *Bot) handleDeleteQuery(
	ctx context.Context,
	callback *tgbotapi.CallbackQuery,
	idStr string,
	entityType string,
	remove func(context.Context, domain.ID) error,
	refresh func(context.Context, int64) error,
) error {
	id, err := domain.ParseID(strings.TrimSpace(idStr))
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse %s id: %w", entityType, err))
	}

	if err := remove(ctx, id); err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("delete %s: %w", entityType, err))
	}

	if err := b.db.RecordAction(ctx, callback.From.ID, "delete", entityType, id.String(), ""); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", "delete",
			"entityType", entityType)
	}

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✅ Deleted.")); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return refresh(ctx, callback.Message.Chat.ID)
}

func (b *Bot) handleGeoUseQuery(
	callback *tgbotapi.CallbackQuery,
	coords string,
) error {
	chatID := callback.Message.Chat.ID

	latStr, lonStr, ok := strings.Cut(coords, ":")
	if !ok {
		return b.errorCallbackAnswer(callback, fmt.Errorf("malformed coordinates %q", coords))
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse lat: %w", err))
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse lon: %w", err))
	}

	if b.draft(chatID) == nil {
		if _, sendErr := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "✖️ The draft is gone.")); sendErr != nil {
			return fmt.Errorf("send request: %w", sendErr)
		}
		return nil
	}

	b.setDraftCoordinates(chatID, lat, lon, nil)

	return b.withEmptyCallbackAnswer(callback, func() error {
		return b.sendDraftSummary(chatID)
	})
}

func (b *Bot) withEmptyCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		errs = append(errs, b.errorCallbackAnswer(callback, fmt.Errorf("send request: %w", err)))
	}

	err := fn()
	if err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	err error,
) error {
	if _, sendErr := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "❌ Failed.")); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send request: %w", sendErr))
	}
	return err
}
