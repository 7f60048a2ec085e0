package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"placedesk/internal/domain"
)

// Users lists all registered users.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	raw, err := c.do(ctx, http.MethodGet, "/users", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	return decodeList[domain.User](raw)
}

// ReportCurrentUser upserts the caller identified by the bearer token.
// The backend derives everything from the init-data, so the body is empty.
func (c *Client) ReportCurrentUser(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/users", nil, struct{}{}); err != nil {
		return fmt.Errorf("report current user: %w", err)
	}

	return nil
}

// ToggleRole flips a user between ADMIN and USER and returns the updated
// record. The backend expects the id as a string here.
func (c *Client) ToggleRole(ctx context.Context, userID domain.ID) (*domain.User, error) {
	body := map[string]string{"user_id": userID.String()}

	raw, err := c.do(ctx, http.MethodPost, "/users/toggle_role", nil, body)
	if err != nil {
		return nil, fmt.Errorf("toggle role: %w", err)
	}

	var user domain.User
	if err = json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	return &user, nil
}

// PromoteToAdmin self-promotes the caller through the hidden admin
// endpoint.
func (c *Client) PromoteToAdmin(
	ctx context.Context,
	tgID int64,
	username string,
	firstName string,
	lastName string,
) error {
	body := map[string]any{
		"telegram_id": tgID,
		"username":    username,
		"first_name":  firstName,
		"last_name":   lastName,
	}

	if _, err := c.do(ctx, http.MethodPost, "/users/admin", nil, body); err != nil {
		return fmt.Errorf("promote to admin: %w", err)
	}

	return nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	raw, err := c.do(ctx, http.MethodGet, "/categories", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}

	return decodeList[domain.Category](raw)
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	raw, err := c.do(ctx, http.MethodPost, "/categories", nil, map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	var category domain.Category
	if err = json.Unmarshal(raw, &category); err != nil {
		return nil, fmt.Errorf("decode category: %w", err)
	}

	return &category, nil
}

// DeleteCategory sends the id in the request body; the backend has no
// /categories/:id route.
func (c *Client) DeleteCategory(ctx context.Context, id domain.ID) error {
	if _, err := c.do(ctx, http.MethodDelete, "/categories", nil, map[string]domain.ID{"id": id}); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	return nil
}

func (c *Client) Tags(ctx context.Context) ([]domain.Tag, error) {
	raw, err := c.do(ctx, http.MethodGet, "/tags", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}

	return decodeList[domain.Tag](raw)
}

// CreateTag posts a multipart form because tags may carry an icon file.
func (c *Client) CreateTag(ctx context.Context, name string, icon []byte, iconName string) (*domain.Tag, error) {
	files := map[string]multipartFile{}
	if len(icon) > 0 {
		files["icon"] = multipartFile{Name: iconName, Content: icon}
	}

	raw, err := c.doMultipart(ctx, "/tags", map[string]string{"name": name}, files)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}

	var tag domain.Tag
	if err = json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("decode tag: %w", err)
	}

	return &tag, nil
}

func (c *Client) DeleteTag(ctx context.Context, id domain.ID) error {
	if _, err := c.do(ctx, http.MethodDelete, "/tags", nil, map[string]domain.ID{"id": id}); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	return nil
}

func (c *Client) Places(ctx context.Context) ([]domain.Place, error) {
	raw, err := c.do(ctx, http.MethodGet, "/places", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get places: %w", err)
	}

	return decodeList[domain.Place](raw)
}

// PendingPlaces returns the moderation queue of locations awaiting
// approval.
func (c *Client) PendingPlaces(ctx context.Context) ([]domain.Place, error) {
	query := url.Values{"status": {string(domain.StatusPending)}}

	raw, err := c.do(ctx, http.MethodGet, "/places", query, nil)
	if err != nil {
		return nil, fmt.Errorf("get pending places: %w", err)
	}

	return decodeList[domain.Place](raw)
}

func (c *Client) Place(ctx context.Context, id domain.ID) (*domain.Place, error) {
	raw, err := c.do(ctx, http.MethodGet, "/places/"+id.String(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get place %s: %w", id, err)
	}

	var place domain.Place
	if err = json.Unmarshal(raw, &place); err != nil {
		return nil, fmt.Errorf("decode place: %w", err)
	}

	return &place, nil
}

func (c *Client) CreatePlace(ctx context.Context, place domain.Place) (*domain.Place, error) {
	raw, err := c.do(ctx, http.MethodPost, "/places", nil, place)
	if err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}

	var created domain.Place
	if err = json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode place: %w", err)
	}

	return &created, nil
}

// UpdatePlace patches only the provided fields.
func (c *Client) UpdatePlace(ctx context.Context, id domain.ID, patch map[string]any) (*domain.Place, error) {
	raw, err := c.do(ctx, http.MethodPatch, "/places/"+id.String(), nil, patch)
	if err != nil {
		return nil, fmt.Errorf("update place %s: %w", id, err)
	}

	var place domain.Place
	if err = json.Unmarshal(raw, &place); err != nil {
		return nil, fmt.Errorf("decode place: %w", err)
	}

	return &place, nil
}

// SetPlaceStatus moves a place through the moderation queue.
func (c *Client) SetPlaceStatus(ctx context.Context, id domain.ID, status domain.ModerationStatus) error {
	if _, err := c.UpdatePlace(ctx, id, map[string]any{"status": status}); err != nil {
		return fmt.Errorf("set place status: %w", err)
	}

	return nil
}

func (c *Client) DeletePlace(ctx context.Context, id domain.ID) error {
	if _, err := c.do(ctx, http.MethodDelete, "/places", nil, map[string]domain.ID{"id": id}); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}

	return nil
}

// UploadPlacePhoto attaches a photo to a place; main selects the
// designated main photo slot.
func (c *Client) UploadPlacePhoto(
	ctx context.Context,
	id domain.ID,
	photo []byte,
	filename string,
	main bool,
) error {
	fields := map[string]string{}
	if main {
		fields["main"] = "true"
	}

	files := map[string]multipartFile{
		"photo": {Name: filename, Content: photo},
	}

	if _, err := c.doMultipart(ctx, "/places/"+id.String()+"/photos", fields, files); err != nil {
		return fmt.Errorf("upload place photo: %w", err)
	}

	return nil
}

func (c *Client) Collections(ctx context.Context) ([]domain.Collection, error) {
	raw, err := c.do(ctx, http.MethodGet, "/collections", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get collections: %w", err)
	}

	return decodeList[domain.Collection](raw)
}

func (c *Client) Collection(ctx context.Context, id domain.ID) (*domain.Collection, error) {
	raw, err := c.do(ctx, http.MethodGet, "/collections/"+id.String(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", id, err)
	}

	var collection domain.Collection
	if err = json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	return &collection, nil
}

func (c *Client) CreateCollection(ctx context.Context, collection domain.Collection) (*domain.Collection, error) {
	raw, err := c.do(ctx, http.MethodPost, "/collections", nil, collection)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	var created domain.Collection
	if err = json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	return &created, nil
}

func (c *Client) UpdateCollection(ctx context.Context, id domain.ID, patch map[string]any) (*domain.Collection, error) {
	raw, err := c.do(ctx, http.MethodPatch, "/collections/"+id.String(), nil, patch)
	if err != nil {
		return nil, fmt.Errorf("update collection %s: %w", id, err)
	}

	var collection domain.Collection
	if err = json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	return &collection, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id domain.ID) error {
	if _, err := c.do(ctx, http.MethodDelete, "/collections", nil, map[string]domain.ID{"id": id}); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	return nil
}

// PendingReviews returns reviews awaiting moderation.
func (c *Client) PendingReviews(ctx context.Context) ([]domain.Review, error) {
	query := url.Values{"status": {string(domain.StatusPending)}}

	raw, err := c.do(ctx, http.MethodGet, "/reviews", query, nil)
	if err != nil {
		return nil, fmt.Errorf("get pending reviews: %w", err)
	}

	return decodeList[domain.Review](raw)
}

func (c *Client) SetReviewStatus(ctx context.Context, id domain.ID, status domain.ModerationStatus) error {
	body := map[string]domain.ModerationStatus{"status": status}

	if _, err := c.do(ctx, http.MethodPatch, "/reviews/"+id.String(), nil, body); err != nil {
		return fmt.Errorf("set review status: %w", err)
	}

	return nil
}

func (c *Client) Profile(ctx context.Context) (*domain.Profile, error) {
	raw, err := c.do(ctx, http.MethodGet, "/profile", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var profile domain.Profile
	if err = json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return &profile, nil
}
