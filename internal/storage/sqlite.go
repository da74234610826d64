package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"photofeed/internal/model"
	"photofeed/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Storage = (*SQLite)(nil)

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveToken stores or replaces the access token of a chat.
func (s *SQLite) SaveToken(ctx context.Context, chatID int64, token string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (chat_id, access_token, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET access_token = excluded.access_token, created_at = excluded.created_at`,
		chatID, token, now,
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// GetToken returns the access token of a chat or ErrNotFound.
func (s *SQLite) GetToken(ctx context.Context, chatID int64) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token FROM tokens WHERE chat_id = ?`, chatID,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the chat's token together with its cached profile.
func (s *SQLite) DeleteToken(ctx context.Context, chatID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return tx.Commit()
}

// SaveProfile caches the profile of the chat's signed-in user.
func (s *SQLite) SaveProfile(ctx context.Context, chatID int64, p *model.Profile) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (chat_id, username, name, login_name, bio, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET
		   username = excluded.username, name = excluded.name, login_name = excluded.login_name,
		   bio = excluded.bio, updated_at = excluded.updated_at`,
		chatID, p.Username, p.Name, p.LoginName, p.Bio, now,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile returns the cached profile of a chat or ErrNotFound.
func (s *SQLite) GetProfile(ctx context.Context, chatID int64) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT username, name, login_name, bio FROM profiles WHERE chat_id = ?`, chatID,
	).Scan(&p.Username, &p.Name, &p.LoginName, &p.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}
