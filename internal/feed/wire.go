package feed

import (
	"encoding/json"
	"fmt"
	"sort"

	"placedesk/internal/api"
	"placedesk/internal/domain"
)

// fromWire decodes one persisted feed row into the domain union. Rows
// saved by older clients used the payload's entity id as the row id;
// those (and rows with no id at all) get a fresh row id so the list
// never carries duplicate row identifiers.
func fromWire(wire api.FeedWireItem, newRowID func() string) (domain.FeedItem, error) {
	item := domain.FeedItem{
		RowID: wire.ID,
		Type:  wire.Type,
		Order: wire.Order,
	}
	if item.RowID == "" {
		item.RowID = newRowID()
	}

	switch wire.Type {
	case domain.ItemPlace:
		var place domain.Place
		if err := json.Unmarshal(wire.Data, &place); err != nil {
			return domain.FeedItem{}, fmt.Errorf("decode place payload: %w", err)
		}
		item.Place = &place

	case domain.ItemCollection:
		var collection domain.Collection
		if err := json.Unmarshal(wire.Data, &collection); err != nil {
			return domain.FeedItem{}, fmt.Errorf("decode collection payload: %w", err)
		}
		item.Collection = &collection

	default:
		return domain.FeedItem{}, fmt.Errorf("unknown feed item type %q", wire.Type)
	}

	return item, nil
}

func toWire(item domain.FeedItem) (api.FeedWireItem, error) {
	var payload any

	switch item.Type {
	case domain.ItemPlace:
		if item.Place == nil {
			return api.FeedWireItem{}, fmt.Errorf("place item %q has no payload", item.RowID)
		}
		payload = item.Place

	case domain.ItemCollection:
		if item.Collection == nil {
			return api.FeedWireItem{}, fmt.Errorf("collection item %q has no payload", item.RowID)
		}
		payload = item.Collection

	default:
		return api.FeedWireItem{}, fmt.Errorf("unknown feed item type %q", item.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return api.FeedWireItem{}, fmt.Errorf("marshal payload: %w", err)
	}

	return api.FeedWireItem{
		ID:    item.RowID,
		Type:  item.Type,
		Order: item.Order,
		Data:  data,
	}, nil
}

// sortByPersistedOrder arranges freshly loaded items by their stored
// order field. This is the only point where a backend-supplied order is
// consulted; from here on array position rules.
func sortByPersistedOrder(items []domain.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
}
