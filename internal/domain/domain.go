// Package domain holds the canonical entity schemas shared by the API
// client, the feed editor and the bot. One definition per entity; shape
// conversion happens only at the serialization boundary.
package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is an opaque 64-bit entity identifier. The backend is inconsistent
// about whether ids arrive as JSON numbers or numeric strings, so ID
// accepts both on the way in and always marshals as a number.
type ID int64

func (id ID) Int64() int64 { return int64(id) }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(id), 10)), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("unquote id: %w", err)
		}
		if unquoted == "" {
			*id = 0
			return nil
		}

		parsed, err := strconv.ParseInt(unquoted, 10, 64)
		if err != nil {
			return fmt.Errorf("parse id %q: %w", unquoted, err)
		}
		*id = ID(parsed)

		return nil
	}

	parsed, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", data, err)
	}
	*id = ID(parsed)

	return nil
}

// ParseID converts an externally supplied decimal string into an ID.
func ParseID(s string) (ID, error) {
	parsed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}

	return ID(parsed), nil
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// ModerationStatus is shared by places and reviews sitting in the
// pending queues.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

type Place struct {
	ID          ID               `json:"id"`
	Name        string           `json:"name"`
	Address     string           `json:"address"`
	CategoryID  ID               `json:"category_id,omitempty"`
	Description string           `json:"description,omitempty"`
	IsPremium   bool             `json:"is_premium,omitempty"`
	PriceLevel  int              `json:"price_level,omitempty"`
	Coordinates *Coordinates     `json:"coordinates,omitempty"`
	TagIDs      []ID             `json:"tags,omitempty"`
	Website     string           `json:"website,omitempty"`
	MainPhoto   string           `json:"main_photo_url,omitempty"`
	Photos      []string         `json:"images,omitempty"`
	Rating      float64          `json:"rating,omitempty"`
	Status      ModerationStatus `json:"status,omitempty"`
}

type Collection struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// PlacesIDs is the authoritative membership list. Places is the
	// hydration of that list, rebuilt from PlacesIDs whenever the
	// collection enters the feed; it is never kept incrementally in sync.
	PlacesIDs []ID    `json:"places_ids"`
	Places    []Place `json:"places,omitempty"`
}

type Review struct {
	ID      ID               `json:"id"`
	PlaceID ID               `json:"place_id"`
	UserID  ID               `json:"user_id"`
	Rating  int              `json:"rating"`
	Content string           `json:"content"`
	Author  string           `json:"author_name,omitempty"`
	Status  ModerationStatus `json:"status,omitempty"`
	Date    string           `json:"date,omitempty"`
}

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type User struct {
	ID        ID     `json:"id"`
	TgID      int64  `json:"tg_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// DisplayName renders the label the admin keyboards use for a user.
func (u User) DisplayName() string {
	name := u.Username
	if name == "" {
		name = fmt.Sprintf("User%d", u.TgID)
	}

	if u.FirstName != "" && u.FirstName != name {
		return fmt.Sprintf("%s (%s)", name, u.FirstName)
	}

	return name
}

type Profile struct {
	ID        ID     `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// ItemType discriminates the feed item union.
type ItemType string

const (
	ItemPlace      ItemType = "place"
	ItemCollection ItemType = "collection"
)

// FeedItem is one entry of the curated feed: either a single place or a
// collection with its hydrated member places. RowID identifies the feed
// row itself and is generated client-side, independent of the payload's
// entity id, so two rows wrapping the same place cannot collide.
type FeedItem struct {
	RowID      string
	Type       ItemType
	Order      int
	Place      *Place
	Collection *Collection
}

// PayloadID returns the wrapped entity's identifier.
func (fi FeedItem) PayloadID() ID {
	switch fi.Type {
	case ItemPlace:
		if fi.Place != nil {
			return fi.Place.ID
		}
	case ItemCollection:
		if fi.Collection != nil {
			return fi.Collection.ID
		}
	}

	return 0
}

// Title returns the human-readable label for the item.
func (fi FeedItem) Title() string {
	switch fi.Type {
	case ItemPlace:
		if fi.Place != nil {
			return fi.Place.Name
		}
	case ItemCollection:
		if fi.Collection != nil {
			if fi.Collection.Title != "" {
				return fi.Collection.Title
			}
			return fi.Collection.Name
		}
	}

	return ""
}
