// Package auth implements the OAuth2 authorization-code flow against
// Unsplash and produces Authorization header values for API calls.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"photofeed/internal/storage"
)

// NativeRedirectPath is the page Unsplash shows for out-of-band redirects.
const NativeRedirectPath = "/oauth/authorize/native"

// ErrStateMismatch is returned when a pasted redirect carries a foreign state.
var ErrStateMismatch = errors.New("oauth state mismatch")

// TokenStore persists access tokens per chat.
type TokenStore interface {
	SaveToken(ctx context.Context, chatID int64, token string) error
	GetToken(ctx context.Context, chatID int64) (string, error)
	DeleteToken(ctx context.Context, chatID int64) error
}

// Config describes the registered OAuth application.
type Config struct {
	AccessKey   string
	SecretKey   string
	RedirectURI string
	Scope       string
	AuthBaseURL string
}

// Service exchanges codes for tokens and builds authorization headers.
type Service struct {
	oauth     oauth2.Config
	accessKey string
	store     TokenStore
	client    *http.Client
}

// New creates a Service. client may be nil to use http.DefaultClient.
func New(cfg Config, store TokenStore, client *http.Client) *Service {
	base := strings.TrimRight(cfg.AuthBaseURL, "/")
	return &Service{
		oauth: oauth2.Config{
			ClientID:     cfg.AccessKey,
			ClientSecret: cfg.SecretKey,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       strings.Fields(cfg.Scope),
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth/authorize",
				TokenURL:  base + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		accessKey: cfg.AccessKey,
		store:     store,
		client:    client,
	}
}

// AuthURL returns the authorization page URL the user has to open.
func (s *Service) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Exchange trades a one-time code for an access token and stores it.
func (s *Service) Exchange(ctx context.Context, chatID int64, code string) (string, error) {
	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("exchange code: empty access token")
	}
	if err := s.store.SaveToken(ctx, chatID, tok.AccessToken); err != nil {
		return "", fmt.Errorf("save token: %w", err)
	}
	return tok.AccessToken, nil
}

// Logout forgets the chat's token.
func (s *Service) Logout(ctx context.Context, chatID int64) error {
	if err := s.store.DeleteToken(ctx, chatID); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// HasToken reports whether the chat is signed in.
func (s *Service) HasToken(ctx context.Context, chatID int64) (bool, error) {
	_, err := s.store.GetToken(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Header returns the Authorization value for chatID: a bearer token when
// one is stored, the anonymous client credential otherwise.
func (s *Service) Header(ctx context.Context, chatID int64) (string, error) {
	tok, err := s.store.GetToken(ctx, chatID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "Client-ID " + s.accessKey, nil
	case err != nil:
		return "", fmt.Errorf("get token: %w", err)
	}
	return "Bearer " + tok, nil
}

// CodeFromURL extracts the authorization code from a native redirect URL.
// state is empty when the URL carries none.
func CodeFromURL(raw string) (code, state string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Path != NativeRedirectPath {
		return "", "", false
	}
	q := u.Query()
	code = q.Get("code")
	if code == "" {
		return "", "", false
	}
	return code, q.Get("state"), true
}

// ParseCode accepts either a bare code or a native redirect URL. When the
// URL carries a state it must equal wantState.
func ParseCode(input, wantState string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("code is required")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}
	code, state, ok := CodeFromURL(input)
	if !ok {
		return "", fmt.Errorf("no authorization code in %q", input)
	}
	if state != "" && state != wantState {
		return "", ErrStateMismatch
	}
	return code, nil
}
