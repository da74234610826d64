package unsplash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"photofeed/internal/model"
)

// URLs is the set of rendition links of a photo.
type URLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full" validate:"required"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb" validate:"required"`
}

// PhotoResult is a photo record as returned by the API.
type PhotoResult struct {
	ID          string     `json:"id" validate:"required"`
	CreatedAt   *Timestamp `json:"created_at"`
	Width       int        `json:"width" validate:"gt=0"`
	Height      int        `json:"height" validate:"gt=0"`
	Description *string    `json:"description"`
	LikedByUser bool       `json:"liked_by_user"`
	URLs        URLs       `json:"urls"`
}

// ToPhoto maps the record to the domain type.
func (r PhotoResult) ToPhoto() model.Photo {
	p := model.Photo{
		ID:       r.ID,
		Size:     model.Size{Width: r.Width, Height: r.Height},
		ThumbURL: r.URLs.Thumb,
		FullURL:  r.URLs.Full,
		IsLiked:  r.LikedByUser,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = r.CreatedAt.Time
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	return p
}

// Timestamp decodes ISO 8601 instants with or without fractional seconds.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("timestamp %s: not a string", b)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("bad ISO 8601 timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// ListPhotos returns one page of the editorial photo feed.
func (c *Client) ListPhotos(ctx context.Context, page, perPage int) ([]PhotoResult, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var results []PhotoResult
	if err := c.do(ctx, http.MethodGet, "/photos", q, &results); err != nil {
		return nil, err
	}
	for i := range results {
		if err := c.validate.Struct(results[i]); err != nil {
			return nil, fmt.Errorf("invalid photo record %d: %w", i, err)
		}
	}
	return results, nil
}

// LikePhoto marks the photo as liked by the current user.
func (c *Client) LikePhoto(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, likePath(id), nil, nil)
}

// UnlikePhoto removes the current user's like from the photo.
func (c *Client) UnlikePhoto(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, likePath(id), nil, nil)
}

func likePath(id string) string {
	return "/photos/" + url.PathEscape(id) + "/like"
}
