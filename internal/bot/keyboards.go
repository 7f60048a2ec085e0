package bot

import (
	"fmt"
	"strings"

	"placedesk/internal/domain"
	"placedesk/internal/feed"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const usersKeyboardRowSize = 2

func (b *Bot) sendMessageWithKeyboard(
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	return b.sendWithKeyboard(chatID, text, keyboard, tgbotapi.ModeMarkdownV2)
}

// sendPlainMessageWithKeyboard skips MarkdownV2 for text assembled from
// backend data that has not gone through escaping.
func (b *Bot) sendPlainMessageWithKeyboard(
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	return b.sendWithKeyboard(chatID, text, keyboard, "")
}

func (b *Bot) sendWithKeyboard(
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
	parseMode string,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.Warn("Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = parseMode

	message.DisableWebPagePreview = true
	message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	_, err := b.rateLimiter.Send(message)
	return err
}

func getReturnKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("⬅️ Return to menu", "menu")},
	}
}

func getMenuKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("🗞 Feed", "menu_feed"),
			tgbotapi.NewInlineKeyboardButtonData("📍 Places", "menu_places"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🕓 Pending places", "menu_pending_places"),
			tgbotapi.NewInlineKeyboardButtonData("📝 Pending reviews", "menu_pending_reviews"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🗂 Categories", "menu_categories"),
			tgbotapi.NewInlineKeyboardButtonData("🏷 Tags", "menu_tags"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("📚 Collections", "menu_collections"),
			tgbotapi.NewInlineKeyboardButtonData("👥 Users", "menu_users"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🧾 Audit", "menu_audit"),
		},
	}
}

// usersKeyboard renders one role-toggle button per user, crown for
// admins. Pressing a button flips that user's role.
func usersKeyboard(users []domain.User) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, user := range users {
		icon := "👤"
		if user.Role == domain.RoleAdmin {
			icon = "👑"
		}

		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s", icon, user.DisplayName()),
			fmt.Sprintf("toggle_role:%s", user.ID),
		))

		if len(row) == usersKeyboardRowSize {
			keyboard = append(keyboard, row)
			row = nil
		}
	}

	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	keyboard = append(keyboard, getReturnKeyboard()...)

	return keyboard
}

func feedKeyboard(items []domain.FeedItem, mode feed.Mode) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	if mode == feed.Editing {
		for i := range items {
			keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⬆️ %d", i+1), fmt.Sprintf("feed_up:%d", i)),
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⬇️ %d", i+1), fmt.Sprintf("feed_down:%d", i)),
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 %d", i+1), fmt.Sprintf("feed_del:%d", i)),
			})
		}

		keyboard = append(keyboard,
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("➕ Place", "feed_add_place"),
				tgbotapi.NewInlineKeyboardButtonData("➕ Collection", "feed_add_collection"),
			},
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("💾 Save", "feed_save"),
			},
		)
	} else {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", "feed_edit"),
		})
	}

	keyboard = append(keyboard, getReturnKeyboard()...)

	return keyboard
}

func placePickerKeyboard(places []domain.Place) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for _, place := range places {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(place.Name, fmt.Sprintf("feed_pick_place:%s", place.ID)),
		})
	}

	keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to feed", "feed_show"),
	})

	return keyboard
}

func collectionPickerKeyboard(collections []domain.Collection) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for _, collection := range collections {
		name := collection.Title
		if name == "" {
			name = collection.Name
		}

		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(name, fmt.Sprintf("feed_pick_collection:%s", collection.ID)),
		})
	}

	keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to feed", "feed_show"),
	})

	return keyboard
}

func moderationKeyboard(entity string, ids []domain.ID) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for i, id := range ids {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ Approve %d", i+1),
				fmt.Sprintf("%s_approve:%s", entity, id),
			),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ Reject %d", i+1),
				fmt.Sprintf("%s_reject:%s", entity, id),
			),
		})
	}

	keyboard = append(keyboard, getReturnKeyboard()...)

	return keyboard
}

func deleteKeyboard(entity string, labels []string, ids []domain.ID) [][]tgbotapi.InlineKeyboardButton {
	var keyboard [][]tgbotapi.InlineKeyboardButton

	for i, id := range ids {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 %s", labels[i]),
				fmt.Sprintf("%s_del:%s", entity, id),
			),
		})
	}

	keyboard = append(keyboard, getReturnKeyboard()...)

	return keyboard
}
