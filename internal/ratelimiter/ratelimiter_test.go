package ratelimiter

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestGetDelay(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		chatID   int64
		lastSent time.Time
		wantZero bool
	}{
		{
			"never sent before",
			123456789,
			time.Time{},
			true,
		},
		{
			"private chat - no delay needed",
			123456789,
			now.Add(-2 * time.Second),
			true,
		},
		{
			"private chat - delay needed",
			123456789,
			now.Add(-500 * time.Millisecond),
			false,
		},
		{
			"group chat - no delay needed",
			-123456789,
			now.Add(-4 * time.Second),
			true,
		},
		{
			"group chat - delay needed",
			-123456789,
			now.Add(-1 * time.Second),
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getDelay(test.chatID, test.lastSent)

			if test.wantZero && got > 0 {
				t.Errorf("Expected zero delay, got %v", got)
			}

			if !test.wantZero && got <= 0 {
				t.Errorf("Expected positive delay, got %v", got)
			}
		})
	}
}

func TestGetChatID(t *testing.T) {
	tests := []struct {
		name    string
		message tgbotapi.Chattable
		want    int64
	}{
		{
			"MessageConfig",
			tgbotapi.NewMessage(12345, "test"),
			12345,
		},
		{
			"ChatActionConfig",
			tgbotapi.NewChatAction(67890, tgbotapi.ChatTyping),
			67890,
		},
		{
			"EditMessageReplyMarkupConfig",
			tgbotapi.NewEditMessageReplyMarkup(111, 5, tgbotapi.InlineKeyboardMarkup{}),
			111,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := getChatID(test.message); got != test.want {
				t.Errorf("Expected %v chatID, got %v", test.want, got)
			}
		})
	}
}

func TestGetRate(t *testing.T) {
	if got := getRate(1); got != privateChatRate {
		t.Errorf("Expected %v rate, got %v", privateChatRate, got)
	}

	if got := getRate(-1); got != groupChatRate {
		t.Errorf("Expected %v rate, got %v", groupChatRate, got)
	}
}
