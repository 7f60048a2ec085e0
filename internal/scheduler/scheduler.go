package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"placedesk/internal/api"
	"placedesk/internal/bot"
	"placedesk/internal/database"
	"placedesk/internal/domain"
	"placedesk/internal/summarizer"

	"github.com/robfig/cron/v3"
)

const (
	HourlyDigestSpec      = "0 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	digestTimeout         = 5 * time.Minute

	maxDigestReviews = 5
)

type Scheduler struct {
	ctx        context.Context
	cron       *cron.Cron
	bot        *bot.Bot
	client     *api.Client
	db         *database.Database
	summarizer summarizer.Summarizer
	log        *slog.Logger
}

func New(
	ctx context.Context,
	bot *bot.Bot,
	client *api.Client,
	db *database.Database,
	summarizer summarizer.Summarizer,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:        ctx,
		cron:       c,
		bot:        bot,
		client:     client,
		db:         db,
		summarizer: summarizer,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(HourlyDigestSpec, s.sendModerationDigest); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sendModerationDigest() {
	ctx, cancel := context.WithTimeout(s.ctx, digestTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	places, err := s.client.PendingPlaces(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to fetch pending places",
			"error", err)
	}

	reviews, err := s.client.PendingReviews(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to fetch pending reviews",
			"error", err)
	}

	if len(places) == 0 && len(reviews) == 0 {
		return
	}

	text := s.buildDigest(ctx, places, reviews)

	chatIDs, err := s.db.KnownAdminChatIDs(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load admin chat IDs",
			"error", err)
		return
	}

	for _, chatID := range chatIDs {
		if err := s.bot.SendModerationDigest(ctx, chatID, text); err != nil {
			s.log.ErrorContext(ctx, "Failed to send moderation digest",
				"error", err,
				"chatID", chatID,
				"pendingPlaces", len(places),
				"pendingReviews", len(reviews))
		}
	}
}

func (s *Scheduler) buildDigest(
	ctx context.Context,
	places []domain.Place,
	reviews []domain.Review,
) string {
	var b strings.Builder

	b.WriteString("Moderation queue:\n")

	if len(places) > 0 {
		fmt.Fprintf(&b, "\n%d place(s) awaiting review:\n", len(places))
		for _, place := range places {
			fmt.Fprintf(&b, "• %s\n", place.Name)
		}
	}

	if len(reviews) > 0 {
		fmt.Fprintf(&b, "\n%d review(s) awaiting moderation:\n", len(reviews))
		for i, review := range reviews {
			if i >= maxDigestReviews {
				fmt.Fprintf(&b, "…and %d more\n", len(reviews)-maxDigestReviews)
				break
			}
			fmt.Fprintf(&b, "• %s\n", s.reviewLine(ctx, review))
		}
	}

	return b.String()
}

func (s *Scheduler) reviewLine(ctx context.Context, review domain.Review) string {
	if s.summarizer == nil {
		return truncate(review.Content, 80)
	}

	summary, err := s.summarizer.Summarize(ctx, summarizer.Input{
		Text:   review.Content,
		Rating: review.Rating,
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to summarize review",
			"error", err,
			"reviewID", review.ID)
		return truncate(review.Content, 80)
	}

	return summary
}

func truncate(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
