// Package model defines the domain types used across the application.
package model

import "time"

// Size holds the pixel dimensions of a photo.
type Size struct {
	Width  int
	Height int
}

// Photo is a single item of the photo feed.
// Values are never mutated in place; use WithLiked to derive a new one.
type Photo struct {
	ID          string
	Size        Size
	CreatedAt   time.Time // zero when unknown
	Description string
	ThumbURL    string
	FullURL     string
	IsLiked     bool
}

// WithLiked returns a copy of p with IsLiked set to liked.
func (p Photo) WithLiked(liked bool) Photo {
	p.IsLiked = liked
	return p
}

// Profile is the signed-in user's public profile.
type Profile struct {
	Username  string
	Name      string
	LoginName string
	Bio       string
}
