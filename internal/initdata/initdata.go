// Package initdata builds the Telegram WebApp init-data envelope the
// backend expects as a bearer credential. The envelope shape matches what
// the real Telegram client sends to the Mini-App; no signature is
// attached, which is only viable because the bot calls its own backend as
// a trusted first party.
package initdata

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"
)

const (
	queryIDPrefix       = "AAH"
	queryIDSuffixLength = 16
	base36Alphabet      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// User is the identity claim serialized into the envelope.
type User struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Username        string `json:"username"`
	LanguageCode    string `json:"language_code"`
	IsPremium       bool   `json:"is_premium"`
	AllowsWriteToPM bool   `json:"allows_write_to_pm"`
}

// Builder produces init-data envelopes. The zero value is not usable;
// construct with New. Clock and randomness are injectable so tests can
// pin the non-deterministic parts.
type Builder struct {
	now     func() time.Time
	intn    func(n int) int
	queryID func() string
}

type Option func(*Builder)

// WithNow overrides the clock used for auth_date.
func WithNow(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithQueryID overrides query_id generation entirely.
func WithQueryID(fn func() string) Option {
	return func(b *Builder) { b.queryID = fn }
}

func New(opts ...Option) *Builder {
	b := &Builder{
		now:  time.Now,
		intn: rand.Intn,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.queryID == nil {
		b.queryID = b.randomQueryID
	}

	return b
}

// Build serializes the user into the wire envelope:
//
//	tgWebAppData=query_id%3D<enc>%26user%3D<enc(JSON)>%26auth_date%3D<unix>
//
// The inner key/value separators arrive pre-encoded (%3D / %26) because
// the whole bundle is itself a query-string value.
func (b *Builder) Build(u User) (string, error) {
	if u.ID == 0 {
		return "", fmt.Errorf("user id is required")
	}

	if u.LanguageCode == "" {
		u.LanguageCode = "en"
	}

	userJSON, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}

	queryID := b.queryID()
	authDate := b.now().Unix()

	return fmt.Sprintf(
		"tgWebAppData=query_id%%3D%s%%26user%%3D%s%%26auth_date%%3D%d",
		encodeURIComponent(queryID),
		encodeURIComponent(string(userJSON)),
		authDate,
	), nil
}

func (b *Builder) randomQueryID() string {
	var sb strings.Builder
	sb.Grow(len(queryIDPrefix) + queryIDSuffixLength)
	sb.WriteString(queryIDPrefix)

	for range queryIDSuffixLength {
		sb.WriteByte(base36Alphabet[b.intn(len(base36Alphabet))])
	}

	return sb.String()
}

// encodeURIComponent mirrors the JS function of the same name, which the
// backend's parser was written against. QueryEscape alone differs on
// spaces.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
