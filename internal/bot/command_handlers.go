package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"placedesk/internal/domain"
	"placedesk/internal/feed"
	"placedesk/internal/markdown"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxAuditEntries = 20

const welcomeText = `🤖 *Welcome to Placedesk\!*

I'm the places admin console\. I can help you:

– Curate the home feed with /feed: reorder, add and remove entries
– Moderate pending places and reviews with /pending\_places and /pending\_reviews
– Manage categories, tags, places and collections
– Toggle user roles with /all\_users
– Add a place with /add\_place, then send a location and photos
– Look up coordinates: just send me an address or a location
– Receive hourly moderation digests \(/digest\_on, /digest\_off\)
– Inspect recent operator actions with /audit`

func (b *Bot) handleStartCommand(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	if err := b.db.UpsertKnownAdmin(ctx, chatID, from.ID, from.UserName); err != nil {
		b.log.WarnContext(ctx, "Failed to upsert known admin",
			"error", err,
			"chatID", chatID,
			"userID", from.ID)
	}

	return b.sendMessageWithKeyboard(chatID, welcomeText, b.menuKeyboard)
}

func (b *Bot) handleMenuCommand(chatID int64) error {
	return b.sendMessageWithKeyboard(chatID, "❔ *Choose an option:*", b.menuKeyboard)
}

// handleAllUsersCommand renders the role-toggle keyboard. The user list
// is fetched fresh per invocation; nothing is cached across commands, so
// a toggle from another admin is visible on the next call.
func (b *Bot) handleAllUsersCommand(ctx context.Context, chatID int64) error {
	users, err := b.client.Users(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("list users: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(users) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No users yet\\.", b.returnKeyboard)
	}

	byID := make(map[domain.ID]domain.User, len(users))
	admins := 0
	for _, user := range users {
		byID[user.ID] = user
		if user.Role == domain.RoleAdmin {
			admins++
		}
	}

	text := fmt.Sprintf(
		"👥 *%d users* \\(%d admins\\)\\. Tap to toggle a role:",
		len(byID),
		admins,
	)

	return b.sendMessageWithKeyboard(chatID, text, usersKeyboard(users))
}

func (b *Bot) handleSecretAdminCommand(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	if err := b.client.PromoteToAdmin(ctx, from.ID, from.UserName, from.FirstName, from.LastName); err != nil {
		errs := []error{fmt.Errorf("promote to admin: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if err := b.db.RecordAction(ctx, from.ID, "promote", "user", fmt.Sprintf("%d", from.ID), "self-promotion"); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", "promote",
			"entityType", "user")
	}

	return b.sendMessageWithKeyboard(chatID, "👑 You are an admin now\\.", b.returnKeyboard)
}

func (b *Bot) handleFeedCommand(ctx context.Context, chatID int64) error {
	editor := b.editor(chatID)

	if err := editor.Load(ctx); err != nil {
		errs := []error{fmt.Errorf("load feed: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.sendFeedView(chatID)
}

func (b *Bot) sendFeedView(chatID int64) error {
	editor := b.editor(chatID)

	items := editor.Items()
	mode := editor.Mode()

	var message strings.Builder

	if mode == feed.Editing {
		message.WriteString("✏️ Feed (editing):\n\n")
	} else {
		message.WriteString("🗞 Feed:\n\n")
	}

	if len(items) == 0 {
		message.WriteString("The feed is empty.\n")
	}

	for _, item := range items {
		icon := "📍"
		suffix := ""

		if item.Type == domain.ItemCollection {
			icon = "📚"
			if item.Collection != nil {
				suffix = fmt.Sprintf(" (%d places)", len(item.Collection.PlacesIDs))
			}
		}

		message.WriteString(fmt.Sprintf("%d. %s %s%s\n", item.Order, icon, item.Title(), suffix))
	}

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), feedKeyboard(items, mode))
}

func (b *Bot) handlePendingPlacesCommand(ctx context.Context, chatID int64) error {
	places, err := b.client.PendingPlaces(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("list pending places: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(places) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✅ No pending places\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("🕓 %d pending place(s):\n\n", len(places)))

	ids := make([]domain.ID, 0, len(places))
	for i, place := range places {
		ids = append(ids, place.ID)

		message.WriteString(fmt.Sprintf("%d. %s", i+1, place.Name))
		if place.Address != "" {
			message.WriteString(fmt.Sprintf("\n    %s", place.Address))
		}
		message.WriteString("\n")
	}

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), moderationKeyboard("place", ids))
}

func (b *Bot) handlePendingReviewsCommand(ctx context.Context, chatID int64) error {
	reviews, err := b.client.PendingReviews(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("list pending reviews: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(reviews) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✅ No pending reviews\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📝 %d pending review(s):\n\n", len(reviews)))

	ids := make([]domain.ID, 0, len(reviews))
	for i, review := range reviews {
		ids = append(ids, review.ID)

		author := review.Author
		if author == "" {
			author = "anonymous"
		}

		message.WriteString(fmt.Sprintf(
			"%d. %s, %d/5\n    %s\n",
			i+1,
			author,
			review.Rating,
			review.Content,
		))
	}

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), moderationKeyboard("review", ids))
}

func (b *Bot) handleCategoriesCommand(ctx context.Context, chatID int64) error {
	categories, err := b.client.Categories(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("list categories: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(categories) == 0 {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ No categories\\. Add one with `/add_category <name>`\\.",
			b.returnKeyboard,
		)
	}

	labels := make([]string, 0, len(categories))
	ids := make([]domain.ID, 0, len(categories))
	for _, category := range categories {
		labels = append(labels, category.Name)
		ids = append(ids, category.ID)
	}

	text := fmt.Sprintf(
		"🗂 *%d categories*\\. Tap to delete, or add with `/add_category <name>`:",
		len(categories),
	)

	return b.sendMessageWithKeyboard(chatID, text, deleteKeyboard("cat", labels, ids))
}

func (b *Bot) handleAddCategoryCommand(ctx context.Context, chatID int64, userID int64, name string) error {
	if name == "" {
		return b.sendMessageWithKeyboard(chatID, "✖️ Usage: `/add_category <name>`\\.", b.returnKeyboard)
	}

	category, err := b.client.CreateCategory(ctx, name)
	if err != nil {
		errs := []error{fmt.Errorf("create category: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if err := b.db.RecordAction(ctx, userID, "create", "category", category.ID.String(), category.Name); err != nil {
		b.log.WarnContext(ctx, "Failed to record audit entry",
			"error", err,
			"action", "create",
			"entityType", "category")
	}

	return b.handleCategoriesCommand(ctx, chatID)
}

func (b *Bot) handleTagsCommand(ctx context.Context, chatID int64) error {
	tags, err := b.client.Tags(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("list tags: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(tags) == 0 {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ No tags\\. Add one by sending an icon with caption `/add_tag <name>`\\.",
			b.returnKeyboard,
		)
	}

	labels := make([]string, 0, len(tags))
	ids := make([]domain.ID, 0, len(tags))
	for _, tag := range tags {
		labels = append(labels, tag.Name)
		ids = append(ids, tag.ID)
	}

	text := fmt.Sprintf(
		"🏷 *%d tags*\\. Tap to delete, or add by sending an icon with caption `/add_tag <name>`:",
		len(tags),
	)

	return b.sendMessageWithKeyboard(chatID, text, deleteKeyboard("tag", labels, ids))
}

func (b *Bot) handlePlacesCommand(ctx context.Context, chatID int64) error {
	places, err := b.client.Places(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("list places: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(places) == 0 {
		return b.sendMessageWithKeyboard(
			chatID,
			"✖️ No places\\. Add one with /add\\_place\\.",
			b.returnKeyboard,
		)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📍 %d place(s). Tap to delete:\n\n", len(places)))

	labels := make([]string, 0, len(places))
	ids := make([]domain.ID, 0, len(places))
	for i, place := range places {
		labels = append(labels, place.Name)
		ids = append(ids, place.ID)

		premium := ""
		if place.IsPremium {
			premium = " ⭐"
		}

		message.WriteString(fmt.Sprintf("%d. %s%s", i+1, place.Name, premium))
		if place.Address != "" {
			message.WriteString(fmt.Sprintf("\n    %s", place.Address))
		}
		message.WriteString("\n")
	}

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), deleteKeyboard("place", labels, ids))
}

func (b *Bot) handlePlaceDetailCommand(ctx context.Context, chatID int64, idStr string) error {
	id, err := domain.ParseID(idStr)
	if err != nil {
		return b.sendMessageWithKeyboard(chatID, "✖️ Usage: `/place <id>`\\.", b.returnKeyboard)
	}

	place, err := b.client.Place(ctx, id)
	if err != nil {
		errs := []error{fmt.Errorf("get place: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("📍 %s", place.Name))
	if place.IsPremium {
		message.WriteString(" ⭐")
	}
	message.WriteString("\n")

	if place.Address != "" {
		message.WriteString(fmt.Sprintf("Address: %s\n", place.Address))
	}
	if coords := place.Coordinates; coords != nil {
		message.WriteString(fmt.Sprintf("Coordinates: %.5f, %.5f\n", coords.Lat, coords.Lng))
	}
	if place.Website != "" {
		message.WriteString(fmt.Sprintf("Website: %s\n", place.Website))
	}
	if place.PriceLevel > 0 {
		message.WriteString(fmt.Sprintf("Price level: %s\n", strings.Repeat("$", place.PriceLevel)))
	}
	if place.Rating > 0 {
		message.WriteString(fmt.Sprintf("Rating: %.1f\n", place.Rating))
	}
	if place.Status != "" {
		message.WriteString(fmt.Sprintf("Status: %s\n", place.Status))
	}
	if place.Description != "" {
		message.WriteString(fmt.Sprintf("\n%s\n", place.Description))
	}

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleCollectionsCommand(ctx context.Context, chatID int64) error {
	collections, err := b.client.Collections(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("list collections: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(collections) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ No collections\\.", b.returnKeyboard)
	}

	labels := make([]string, 0, len(collections))
	ids := make([]domain.ID, 0, len(collections))
	for _, collection := range collections {
		name := collection.Title
		if name == "" {
			name = collection.Name
		}

		labels = append(labels, fmt.Sprintf("%s (%d places)", name, len(collection.PlacesIDs)))
		ids = append(ids, collection.ID)
	}

	text := fmt.Sprintf("📚 *%d collections*\\. Tap to delete:", len(collections))

	return b.sendMessageWithKeyboard(chatID, text, deleteKeyboard("col", labels, ids))
}

func (b *Bot) handleProfileCommand(ctx context.Context, chatID int64) error {
	profile, err := b.client.Profile(ctx)
	if err != nil {
		errs := []error{fmt.Errorf("get profile: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	name := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	if name == "" {
		name = profile.Username
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("👤 *%s*\n", markdown.Escape(name)))
	if profile.Username != "" {
		message.WriteString(fmt.Sprintf("@%s\n", markdown.Escape(profile.Username)))
	}
	message.WriteString(fmt.Sprintf("id: %s", profile.ID))

	return b.sendMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleAuditCommand(ctx context.Context, chatID int64) error {
	entries, err := b.db.RecentActions(ctx, maxAuditEntries)
	if err != nil {
		errs := []error{fmt.Errorf("list audit entries: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(entries) == 0 {
		return b.sendMessageWithKeyboard(chatID, "✖️ Audit log is empty\\.", b.returnKeyboard)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("🧾 Last %d action(s):\n\n", len(entries)))

	for _, entry := range entries {
		message.WriteString(fmt.Sprintf(
			"%s  %d %s %s %s",
			entry.CreatedAt.UTC().Format("01-02 15:04"),
			entry.ActorTgID,
			entry.Action,
			entry.EntityType,
			entry.EntityID,
		))
		if entry.Detail != "" {
			message.WriteString(fmt.Sprintf(" (%s)", entry.Detail))
		}
		message.WriteString("\n")
	}

	return b.sendPlainMessageWithKeyboard(chatID, message.String(), b.returnKeyboard)
}

func (b *Bot) handleDigestOnCommand(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	if err := b.db.UpsertKnownAdmin(ctx, chatID, from.ID, from.UserName); err != nil {
		errs := []error{fmt.Errorf("upsert known admin: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.sendMessageWithKeyboard(chatID, "✅ Moderation digests are on\\.", b.returnKeyboard)
}

func (b *Bot) handleDigestOffCommand(ctx context.Context, chatID int64) error {
	if err := b.db.RemoveKnownAdmin(ctx, chatID); err != nil {
		errs := []error{fmt.Errorf("remove known admin: %w", err)}

		sendErr := b.sendMessageWithKeyboard(chatID, "❌ Failed\\.", b.returnKeyboard)
		if sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	return b.sendMessageWithKeyboard(chatID, "✅ Moderation digests are off\\.", b.returnKeyboard)
}
