// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"photofeed/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	SaveToken(ctx context.Context, chatID int64, token string) error
	GetToken(ctx context.Context, chatID int64) (string, error)
	DeleteToken(ctx context.Context, chatID int64) error

	SaveProfile(ctx context.Context, chatID int64, p *model.Profile) error
	GetProfile(ctx context.Context, chatID int64) (*model.Profile, error)

	Close() error
}
