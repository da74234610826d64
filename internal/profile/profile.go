// Package profile loads the signed-in user's profile and avatar.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"photofeed/internal/model"
	"photofeed/internal/storage"
	"photofeed/internal/unsplash"
)

// API is the subset of the Unsplash client used for profiles.
type API interface {
	Me(ctx context.Context) (*unsplash.ProfileResult, error)
	User(ctx context.Context, username string) (*unsplash.UserResult, error)
}

// Cache keeps the last fetched profile per chat.
type Cache interface {
	SaveProfile(ctx context.Context, chatID int64, p *model.Profile) error
	GetProfile(ctx context.Context, chatID int64) (*model.Profile, error)
}

// Service fetches profiles and remembers the last good one.
type Service struct {
	cache Cache
	log   *slog.Logger
}

// New creates a Service. A nil logger discards output.
func New(cache Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{cache: cache, log: log}
}

// Format builds a Profile from the /me payload.
func Format(r *unsplash.ProfileResult) model.Profile {
	var parts []string
	for _, s := range []*string{r.FirstName, r.LastName} {
		if s != nil {
			parts = append(parts, *s)
		}
	}
	name := strings.TrimSpace(strings.Join(parts, " "))
	if name == "" {
		name = r.Username
	}

	var bio string
	if r.Bio != nil {
		bio = *r.Bio
	}

	return model.Profile{
		Username:  r.Username,
		Name:      name,
		LoginName: "@" + r.Username,
		Bio:       bio,
	}
}

// Fetch loads the profile from the API and caches it. When the API call
// fails and a cached profile exists, the cached one is returned along with
// the error so the caller can decide whether to show stale data.
func (s *Service) Fetch(ctx context.Context, chatID int64, api API) (*model.Profile, error) {
	res, err := api.Me(ctx)
	if err != nil {
		err = fmt.Errorf("fetch profile: %w", err)
		cached, ok, cerr := s.Cached(ctx, chatID)
		if cerr != nil || !ok {
			return nil, err
		}
		return cached, err
	}

	p := Format(res)
	if err := s.cache.SaveProfile(ctx, chatID, &p); err != nil {
		s.log.Warn("cache profile", "chat_id", chatID, "error", err)
	}
	return &p, nil
}

// Cached returns the last fetched profile. ok is false when none is stored.
func (s *Service) Cached(ctx context.Context, chatID int64) (p *model.Profile, ok bool, err error) {
	p, err = s.cache.GetProfile(ctx, chatID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("get profile: %w", err)
	}
	return p, true, nil
}

// AvatarURL returns the small avatar rendition of username.
func AvatarURL(ctx context.Context, api API, username string) (string, error) {
	if username == "" {
		return "", errors.New("username is required")
	}
	u, err := api.User(ctx, username)
	if err != nil {
		return "", fmt.Errorf("fetch user %s: %w", username, err)
	}
	return u.ProfileImage.Small, nil
}
