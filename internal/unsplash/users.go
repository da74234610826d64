package unsplash

import (
	"context"
	"net/http"
	"net/url"
)

// ProfileResult is the body of GET /me.
type ProfileResult struct {
	Username  string  `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// ProfileImage holds the avatar renditions of a user.
type ProfileImage struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// UserResult is the subset of GET /users/{username} used here.
type UserResult struct {
	Username     string       `json:"username"`
	ProfileImage ProfileImage `json:"profile_image"`
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*ProfileResult, error) {
	var res ProfileResult
	if err := c.do(ctx, http.MethodGet, "/me", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// User returns the public profile of username.
func (c *Client) User(ctx context.Context, username string) (*UserResult, error) {
	var res UserResult
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
