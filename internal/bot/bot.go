package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"placedesk/internal/api"
	"placedesk/internal/database"
	"placedesk/internal/feed"
	"placedesk/internal/geocode"
	"placedesk/internal/ratelimiter"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxBackoffSeconds         = 60
	initialBackoffSeconds     = 3
	backoffGrowthFactor       = 2
	resetOffsetBackoffSeconds = 30
	updateProcessingTimeout   = 60 * time.Second

	BotUpdateTimeout = 60
)

type Bot struct {
	api          *tgbotapi.BotAPI
	rateLimiter  *ratelimiter.RateLimiter
	client       *api.Client
	geocoder     *geocode.Client
	db           *database.Database
	allowedUsers []int64

	returnKeyboard [][]tgbotapi.InlineKeyboardButton
	menuKeyboard   [][]tgbotapi.InlineKeyboardButton

	mu        sync.Mutex
	editors   map[int64]*feed.Editor
	drafts    map[int64]*placeDraft
	searchers map[int64]*geocode.Searcher

	log *slog.Logger
}

// New wires a bot around an already authenticated Telegram API handle.
// The handle is created by the caller because its identity also seeds
// the backend credential.
func New(
	botAPI *tgbotapi.BotAPI,
	client *api.Client,
	geocoder *geocode.Client,
	db *database.Database,
	allowedUsers []int64,
	log *slog.Logger,
) *Bot {
	rateLimiter := ratelimiter.New(botAPI, log)

	return &Bot{
		api:            botAPI,
		rateLimiter:    rateLimiter,
		client:         client,
		geocoder:       geocoder,
		db:             db,
		allowedUsers:   allowedUsers,
		returnKeyboard: getReturnKeyboard(),
		menuKeyboard:   getMenuKeyboard(),
		editors:        make(map[int64]*feed.Editor),
		drafts:         make(map[int64]*placeDraft),
		searchers:      make(map[int64]*geocode.Searcher),
		log:            log,
	}
}

func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = BotUpdateTimeout

	backoffSeconds := initialBackoffSeconds

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return
		default:
		}

		updates := b.api.GetUpdatesChan(updateConfig)
		updatesClosed := false

		for !updatesClosed {
			select {
			case <-ctx.Done():
				b.log.InfoContext(ctx, "Bot context is done",
					"error", ctx.Err())
				return

			case update, ok := <-updates:
				if !ok {
					updatesClosed = true
					continue
				}
				updateConfig.Offset = update.UpdateID + 1

				b.handleUpdate(ctx, &update)
			}
		}

		if ctx.Err() != nil {
			return
		}

		b.log.WarnContext(ctx, "Update channel is closed, reconnecting...",
			"offset", updateConfig.Offset,
			"backoffSeconds", backoffSeconds)

		time.Sleep(time.Duration(backoffSeconds) * time.Second)

		backoffSeconds = updateBackoffSeconds(backoffSeconds)

		if backoffSeconds >= resetOffsetBackoffSeconds {
			updateConfig.Offset = 0
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		chatID, chatType := chatContext(update.Message.Chat)

		userID := update.Message.From.ID
		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", chatID,
				"username", update.Message.From.UserName,
				"chatType", chatType)

			return
		}

		b.reportUser(ctx, update.Message.From)

		if err := b.handleMessage(updateCtx, update.Message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", userID,
				"chatType", chatType,
				"messageID", update.Message.MessageID)
		}

	case update.CallbackQuery != nil:
		chatID := callbackChatID(update.CallbackQuery)

		if !b.userAllowed(update.CallbackQuery.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", update.CallbackQuery.From.ID,
				"chatID", chatID,
				"username", update.CallbackQuery.From.UserName,
				"data", update.CallbackQuery.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, update.CallbackQuery); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", update.CallbackQuery.From.ID,
				"data", update.CallbackQuery.Data,
				"messageID", callbackMessageID(update.CallbackQuery))
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	if len(b.allowedUsers) == 0 {
		return true
	}

	for _, allowed := range b.allowedUsers {
		if allowed == userID {
			return true
		}
	}

	return false
}

// reportUser mirrors every interaction to the backend's user-stats
// endpoint. Best effort: it runs detached with its own timeout, never
// blocks or fails the triggering update.
func (b *Bot) reportUser(ctx context.Context, from *tgbotapi.User) {
	if from == nil {
		return
	}

	userID := from.ID

	go func() {
		reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := b.client.ReportCurrentUser(reportCtx); err != nil {
			b.log.WarnContext(reportCtx, "Failed to report user stats",
				"error", err,
				"userID", userID)
		}
	}()
}

func (b *Bot) editor(chatID int64) *feed.Editor {
	b.mu.Lock()
	defer b.mu.Unlock()

	editor, ok := b.editors[chatID]
	if !ok {
		editor = feed.NewEditor(b.client, b.log)
		b.editors[chatID] = editor
	}

	return editor
}

func (b *Bot) searcher(chatID int64) *geocode.Searcher {
	b.mu.Lock()
	defer b.mu.Unlock()

	searcher, ok := b.searchers[chatID]
	if !ok {
		searcher = geocode.NewSearcher(b.geocoder, b.log)
		b.searchers[chatID] = searcher
	}

	return searcher
}

// SendModerationDigest delivers a scheduler digest to one admin chat.
func (b *Bot) SendModerationDigest(_ context.Context, chatID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if err := b.sendPlainMessageWithKeyboard(chatID, text, b.returnKeyboard); err != nil {
		return fmt.Errorf("send message with keyboard: %w", err)
	}

	return nil
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func updateBackoffSeconds(backoffSeconds int) int {
	if backoffSeconds < maxBackoffSeconds {
		backoffSeconds *= backoffGrowthFactor
		if backoffSeconds > maxBackoffSeconds {
			backoffSeconds = maxBackoffSeconds
		}
	}
	return backoffSeconds
}

func chatContext(chat *tgbotapi.Chat) (int64, string) {
	if chat == nil {
		return 0, ""
	}

	return chat.ID, chat.Type
}

func callbackChatID(cb *tgbotapi.CallbackQuery) int64 {
	if cb != nil && cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}

	return 0
}

func callbackMessageID(cb *tgbotapi.CallbackQuery) int {
	if cb != nil && cb.Message != nil {
		return cb.Message.MessageID
	}

	return 0
}
