// Package feed implements the composition engine behind the curated
// discovery feed: an operator-editable ordered list of places and
// collections that is loaded from, and flushed back to, the backend as a
// whole.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"placedesk/internal/api"
	"placedesk/internal/domain"
)

// Backend is the slice of the REST client the editor depends on.
type Backend interface {
	Feed(ctx context.Context) ([]api.FeedWireItem, error)
	SaveFeed(ctx context.Context, items []api.FeedWireItem) error
	Places(ctx context.Context) ([]domain.Place, error)
	Place(ctx context.Context, id domain.ID) (*domain.Place, error)
}

// Mode is the editor-level state: the list is read-only while Viewing and
// mutable while Editing.
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}

	return "viewing"
}

// ErrViewOnly is returned by mutations attempted outside of edit mode.
var ErrViewOnly = errors.New("feed is not in edit mode")

// Editor owns the in-memory feed list for one editing session. A session
// has exactly one owner; concurrent editors are not supported, so all the
// mutex buys is safety against overlapping callback deliveries.
type Editor struct {
	backend  Backend
	log      *slog.Logger
	newRowID func() string

	mu    sync.Mutex
	items []domain.FeedItem
	mode  Mode
}

type Option func(*Editor)

// WithRowIDs overrides feed-row id generation.
func WithRowIDs(fn func() string) Option {
	return func(e *Editor) { e.newRowID = fn }
}

func NewEditor(backend Backend, log *slog.Logger, opts ...Option) *Editor {
	e := &Editor{
		backend:  backend,
		log:      log,
		newRowID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Load replaces the in-memory list with the persisted feed. Place items
// are re-fetched by id so the session starts from current data rather
// than whatever was captured at the last save; collection items are
// re-hydrated from their places_ids. Per-item resolution failures keep
// the item with partial data and are only logged. A missing feed row on
// the backend is an empty feed, not an error (the client maps 404 to an
// empty list).
func (e *Editor) Load(ctx context.Context) error {
	wire, err := e.backend.Feed(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(wire))
	for _, wireItem := range wire {
		item, decodeErr := fromWire(wireItem, e.newRowID)
		if decodeErr != nil {
			e.log.WarnContext(ctx, "Skipping undecodable feed item",
				"error", decodeErr,
				"rowID", wireItem.ID,
				"type", wireItem.Type)

			continue
		}

		items = append(items, item)
	}

	sortByPersistedOrder(items)

	for i := range items {
		switch items[i].Type {
		case domain.ItemPlace:
			e.refreshPlaceItem(ctx, &items[i])
		case domain.ItemCollection:
			e.hydrateCollectionItem(ctx, &items[i])
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = items
	renumber(e.items)

	return nil
}

func (e *Editor) refreshPlaceItem(ctx context.Context, item *domain.FeedItem) {
	if item.Place == nil {
		return
	}

	fresh, err := e.backend.Place(ctx, item.Place.ID)
	if err != nil {
		e.log.WarnContext(ctx, "Keeping stale place data in feed",
			"error", err,
			"placeID", item.Place.ID.Int64())

		return
	}

	item.Place = fresh
}

func (e *Editor) hydrateCollectionItem(ctx context.Context, item *domain.FeedItem) {
	if item.Collection == nil || len(item.Collection.PlacesIDs) == 0 {
		return
	}

	places, err := e.resolvePlaces(ctx, item.Collection.PlacesIDs)
	if err != nil {
		e.log.WarnContext(ctx, "Partially hydrated collection in feed",
			"error", err,
			"collectionID", item.Collection.ID.Int64(),
			"placeCount", len(item.Collection.PlacesIDs))
	}

	item.Collection.Places = places
}

// Items returns a snapshot of the current list in order.
func (e *Editor) Items() []domain.FeedItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.FeedItem, len(e.items))
	copy(out, e.items)

	return out
}

func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.items)
}

func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.mode
}

// StartEditing enables mutations. Entering edit mode never writes to the
// backend.
func (e *Editor) StartEditing() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mode = Editing
}

// FinishEditing attempts to persist the session. On success the editor
// returns to Viewing; on failure it stays in Editing so no edits are
// lost and the operator can retry.
func (e *Editor) FinishEditing(ctx context.Context) error {
	if err := e.Save(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = Viewing

	return nil
}

// ToggleEdit flips between Viewing and Editing, saving on the way out of
// edit mode. It returns the mode the editor is in afterwards.
func (e *Editor) ToggleEdit(ctx context.Context) (Mode, error) {
	if e.Mode() == Viewing {
		e.StartEditing()
		return Editing, nil
	}

	if err := e.FinishEditing(ctx); err != nil {
		return Editing, err
	}

	return Viewing, nil
}

// AvailablePlaces returns the catalog minus places already present as
// top-level feed items. Membership inside a collection does not exclude
// a place.
func (e *Editor) AvailablePlaces(ctx context.Context) ([]domain.Place, error) {
	all, err := e.backend.Places(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch places: %w", err)
	}

	existing := make(map[domain.ID]struct{})

	e.mu.Lock()
	for _, item := range e.items {
		if item.Type == domain.ItemPlace && item.Place != nil {
			existing[item.Place.ID] = struct{}{}
		}
	}
	e.mu.Unlock()

	available := make([]domain.Place, 0, len(all))
	for _, place := range all {
		if _, ok := existing[place.ID]; ok {
			continue
		}
		available = append(available, place)
	}

	return available, nil
}

// AddPlace appends the place as a new top-level item. No deduplication
// against collection contents is performed; the picker is expected to
// have filtered top-level duplicates already.
func (e *Editor) AddPlace(place domain.Place) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != Editing {
		return ErrViewOnly
	}

	e.items = append(e.items, domain.FeedItem{
		RowID: e.newRowID(),
		Type:  domain.ItemPlace,
		Order: len(e.items) + 1,
		Place: &place,
	})

	return nil
}

// AddCollection resolves every member id to its place record and appends
// the collection with the hydrated payload. Individual resolution
// failures keep a stub in that position rather than discarding the whole
// collection; the joined resolution error is logged, not returned.
func (e *Editor) AddCollection(ctx context.Context, collection domain.Collection) error {
	if e.Mode() != Editing {
		return ErrViewOnly
	}

	places, err := e.resolvePlaces(ctx, collection.PlacesIDs)
	if err != nil {
		e.log.WarnContext(ctx, "Partially resolved collection",
			"error", err,
			"collectionID", collection.ID.Int64(),
			"placeCount", len(collection.PlacesIDs))
	}
	collection.Places = places

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != Editing {
		return ErrViewOnly
	}

	e.items = append(e.items, domain.FeedItem{
		RowID:      e.newRowID(),
		Type:       domain.ItemCollection,
		Order:      len(e.items) + 1,
		Collection: &collection,
	})

	return nil
}

// Move removes the item at from and reinserts it at to, shifting the
// items in between. This is the only structural reordering primitive.
func (e *Editor) Move(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != Editing {
		return ErrViewOnly
	}

	if from < 0 || from >= len(e.items) {
		return fmt.Errorf("move: source index %d out of range [0,%d)", from, len(e.items))
	}
	if to < 0 || to >= len(e.items) {
		return fmt.Errorf("move: destination index %d out of range [0,%d)", to, len(e.items))
	}

	moved := e.items[from]
	e.items = append(e.items[:from], e.items[from+1:]...)

	e.items = append(e.items, domain.FeedItem{})
	copy(e.items[to+1:], e.items[to:])
	e.items[to] = moved

	renumber(e.items)

	return nil
}

func (e *Editor) MoveUp(index int) error {
	if index == 0 {
		return nil
	}

	return e.Move(index, index-1)
}

func (e *Editor) MoveDown(index int) error {
	if index == e.Len()-1 {
		return nil
	}

	return e.Move(index, index+1)
}

// Delete removes the item at the given index.
func (e *Editor) Delete(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != Editing {
		return ErrViewOnly
	}

	if index < 0 || index >= len(e.items) {
		return fmt.Errorf("delete: index %d out of range [0,%d)", index, len(e.items))
	}

	e.items = append(e.items[:index], e.items[index+1:]...)
	renumber(e.items)

	return nil
}

// Save renumbers the list to a dense 1..N order computed purely from
// array position, maps it to the wire shape and replaces the persisted
// feed. A save failure is returned as-is: it must never be swallowed,
// and the in-memory session stays intact for a retry.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	renumber(e.items)

	wire := make([]api.FeedWireItem, 0, len(e.items))
	for _, item := range e.items {
		wireItem, err := toWire(item)
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("encode feed item %q: %w", item.RowID, err)
		}
		wire = append(wire, wireItem)
	}
	e.mu.Unlock()

	if err := e.backend.SaveFeed(ctx, wire); err != nil {
		return fmt.Errorf("persist feed: %w", err)
	}

	return nil
}

// renumber restores the dense ascending 1..N order invariant. Array
// position is the single source of truth; any order value that arrived
// from the backend is discarded here.
func renumber(items []domain.FeedItem) {
	for i := range items {
		items[i].Order = i + 1
	}
}
