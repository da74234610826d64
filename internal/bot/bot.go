package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"photofeed/internal/auth"
	"photofeed/internal/config"
	"photofeed/internal/feed"
	"photofeed/internal/profile"
)

const (
	taskBuffer    = 64
	evictInterval = time.Minute
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// PhotoAPI is the per-chat view of the Unsplash API.
type PhotoAPI interface {
	feed.API
	profile.API
}

// ClientFactory returns an API client that authorizes as chatID.
type ClientFactory func(chatID int64) PhotoAPI

// Authenticator runs the OAuth flow and tracks signed-in chats.
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, chatID int64, code string) (string, error)
	Logout(ctx context.Context, chatID int64) error
	HasToken(ctx context.Context, chatID int64) (bool, error)
}

// Bot is the Telegram front end of the photo feed.
//
// Updates, dispatched presenter work and idle eviction all run on the Run
// goroutine; sessions and pending logins are owned by it.
type Bot struct {
	api       telegramAPI
	auth      Authenticator
	profiles  *profile.Service
	newClient ClientFactory
	cfg       *config.Config
	log       *slog.Logger

	tasks   chan func()
	stopped chan struct{}
	now     func() time.Time

	ctx      context.Context
	sessions map[int64]*session
	states   map[int64]string
}

// New creates a Bot with the given Telegram token and collaborators.
func New(token string, authn Authenticator, profiles *profile.Service, newClient ClientFactory, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, authn, profiles, newClient, cfg, log), nil
}

func newBot(api telegramAPI, authn Authenticator, profiles *profile.Service, newClient ClientFactory, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:       api,
		auth:      authn,
		profiles:  profiles,
		newClient: newClient,
		cfg:       cfg,
		log:       log,
		tasks:     make(chan func(), taskBuffer),
		stopped:   make(chan struct{}),
		now:       time.Now,
		ctx:       context.Background(),
		sessions:  make(map[int64]*session),
		states:    make(map[int64]string),
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.ctx = ctx
	defer close(b.stopped)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.closeSessions()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		case task := <-b.tasks:
			task()
		case <-ticker.C:
			b.evictIdle()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil {
			return
		}
		if !b.cfg.IsUserAllowed(cb.From.ID) {
			b.answer(cb.ID, "Access denied.")
			return
		}
		b.handleCallback(ctx, cb)
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}
	if msg.From != nil && !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	// A pasted redirect page URL completes the login without /code.
	if _, _, ok := auth.CodeFromURL(msg.Text); ok {
		b.handleCode(ctx, msg.Chat.ID, msg.Text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.handleHelp(chatID)
	case "login":
		b.handleLogin(chatID)
	case "code":
		b.handleCode(ctx, chatID, args)
	case "logout":
		b.handleLogout(ctx, chatID)
	case "feed":
		b.handleFeed(chatID)
	case "more":
		b.handleMore(chatID)
	case "profile":
		b.handleProfile(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// dispatch queues f for the Run goroutine. It is the Dispatch of every
// presenter the bot creates.
func (b *Bot) dispatch(f func()) {
	select {
	case b.tasks <- f:
	case <-b.stopped:
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
}

func (b *Bot) session(chatID int64) *session {
	s, ok := b.sessions[chatID]
	if !ok {
		s = newSession(b.ctx, b, chatID)
		b.sessions[chatID] = s
		b.log.Info("session opened", "chat_id", chatID)
	}
	s.touch(b.now())
	return s
}

func (b *Bot) dropSession(chatID int64) {
	if s, ok := b.sessions[chatID]; ok {
		s.close()
		delete(b.sessions, chatID)
		b.log.Info("session closed", "chat_id", chatID)
	}
}

func (b *Bot) evictIdle() {
	cutoff := b.now().Add(-b.cfg.SessionIdle)
	for chatID, s := range b.sessions {
		if s.lastSeen.Before(cutoff) {
			b.log.Debug("evict idle session", "chat_id", chatID, "last_seen", s.lastSeen)
			b.dropSession(chatID)
		}
	}
}

func (b *Bot) closeSessions() {
	for chatID := range b.sessions {
		b.dropSession(chatID)
	}
}
