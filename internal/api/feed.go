package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"placedesk/internal/domain"
)

// FeedWireItem is the persisted shape of one feed row: the row id, the
// union discriminant, the dense order field and the raw payload.
type FeedWireItem struct {
	ID    string          `json:"id"`
	Type  domain.ItemType `json:"type"`
	Order int             `json:"order"`
	Data  json.RawMessage `json:"data"`
}

// Feed fetches the persisted feed. The backend does not pre-create empty
// feed rows, so a 404 here means "no feed yet" and resolves to an empty
// list rather than an error.
func (c *Client) Feed(ctx context.Context) ([]FeedWireItem, error) {
	raw, err := c.do(ctx, http.MethodGet, "/feed", nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("get feed: %w", err)
	}

	return decodeList[FeedWireItem](raw)
}

// SaveFeed replaces the persisted feed with the given list. The previous
// contents are discarded wholesale; there is no diffing.
func (c *Client) SaveFeed(ctx context.Context, items []FeedWireItem) error {
	if items == nil {
		items = []FeedWireItem{}
	}

	if _, err := c.do(ctx, http.MethodPost, "/feed", nil, items); err != nil {
		return fmt.Errorf("save feed: %w", err)
	}

	return nil
}
