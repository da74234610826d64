package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"photofeed/internal/config"
	"photofeed/internal/profile"
	"photofeed/internal/storage"
	"photofeed/internal/unsplash"
)

const waitTimeout = 2 * time.Second

// --- mocks ---

type sentMsg struct {
	ChatID  int64
	Text    string
	Photo   string
	Buttons []string
}

type editMsg struct {
	MessageID int
	Buttons   []string
}

type mockAPI struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMsg
	edits   []editMsg
	answers []string
}

func buttons(markup any) []string {
	var kb *tgbotapi.InlineKeyboardMarkup
	switch m := markup.(type) {
	case tgbotapi.InlineKeyboardMarkup:
		kb = &m
	case *tgbotapi.InlineKeyboardMarkup:
		kb = m
	default:
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			data := ""
			if btn.CallbackData != nil {
				data = *btn.CallbackData
			}
			out = append(out, btn.Text+"|"+data)
		}
	}
	return out
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch msg := c.(type) {
	case tgbotapi.MessageConfig:
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text, Buttons: buttons(msg.ReplyMarkup)})
	case tgbotapi.PhotoConfig:
		url, _ := msg.File.(tgbotapi.FileURL)
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Caption, Photo: string(url), Buttons: buttons(msg.ReplyMarkup)})
	}
	m.nextID++
	return tgbotapi.Message{MessageID: m.nextID}, nil
}

func (m *mockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch req := c.(type) {
	case tgbotapi.EditMessageReplyMarkupConfig:
		m.edits = append(m.edits, editMsg{MessageID: req.MessageID, Buttons: buttons(req.ReplyMarkup)})
	case tgbotapi.CallbackConfig:
		m.answers = append(m.answers, req.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Photo == "" {
			return m.sent[i].Text
		}
	}
	return ""
}

func (m *mockAPI) photos() []sentMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMsg
	for _, s := range m.sent {
		if s.Photo != "" {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockAPI) allEdits() []editMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]editMsg(nil), m.edits...)
}

func (m *mockAPI) lastAnswer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.answers) == 0 {
		return ""
	}
	return m.answers[len(m.answers)-1]
}

func (m *mockAPI) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.edits = nil
	m.answers = nil
}

type fakeUnsplash struct {
	mu      sync.Mutex
	pages   map[int][]unsplash.PhotoResult
	listErr error
	likeErr error
	likes   []string
	me      *unsplash.ProfileResult
	user    *unsplash.UserResult
}

func (f *fakeUnsplash) ListPhotos(_ context.Context, page, _ int) ([]unsplash.PhotoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pages[page], nil
}

func (f *fakeUnsplash) LikePhoto(_ context.Context, id string) error {
	return f.recordLike("like:" + id)
}

func (f *fakeUnsplash) UnlikePhoto(_ context.Context, id string) error {
	return f.recordLike("unlike:" + id)
}

func (f *fakeUnsplash) recordLike(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes = append(f.likes, call)
	return f.likeErr
}

func (f *fakeUnsplash) Me(context.Context) (*unsplash.ProfileResult, error) {
	if f.me == nil {
		return nil, &unsplash.StatusError{Method: "GET", Path: "/me", Code: 401}
	}
	return f.me, nil
}

func (f *fakeUnsplash) User(_ context.Context, username string) (*unsplash.UserResult, error) {
	if f.user == nil || f.user.Username != username {
		return nil, &unsplash.StatusError{Method: "GET", Path: "/users/" + username, Code: 404}
	}
	return f.user, nil
}

type fakeAuth struct {
	tokens      map[int64]string
	lastState   string
	exchangeErr error
}

func (f *fakeAuth) AuthURL(state string) string {
	f.lastState = state
	return "https://unsplash.com/oauth/authorize?state=" + state
}

func (f *fakeAuth) Exchange(_ context.Context, chatID int64, code string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	tok := "tok-" + code
	f.tokens[chatID] = tok
	return tok, nil
}

func (f *fakeAuth) Logout(_ context.Context, chatID int64) error {
	delete(f.tokens, chatID)
	return nil
}

func (f *fakeAuth) HasToken(_ context.Context, chatID int64) (bool, error) {
	_, ok := f.tokens[chatID]
	return ok, nil
}

// --- helpers ---

const testChat int64 = 100

func photoResult(id string) unsplash.PhotoResult {
	return unsplash.PhotoResult{
		ID:     id,
		Width:  1000,
		Height: 500,
		URLs: unsplash.URLs{
			Thumb: fmt.Sprintf("https://images.example.com/%s_thumb.jpg", id),
			Full:  fmt.Sprintf("https://images.example.com/%s_full.jpg", id),
		},
	}
}

type testEnv struct {
	bot      *Bot
	api      *mockAPI
	unsplash *fakeUnsplash
	auth     *fakeAuth
}

func newTestBot(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{
		api: &mockAPI{},
		unsplash: &fakeUnsplash{pages: map[int][]unsplash.PhotoResult{
			1: {photoResult("a"), photoResult("b")},
			2: {photoResult("c"), photoResult("d")},
		}},
		auth: &fakeAuth{tokens: make(map[int64]string)},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{PageSize: 2, SessionIdle: time.Hour}
	newClient := func(int64) PhotoAPI { return env.unsplash }

	env.bot = newBot(env.api, env.auth, profile.New(store, log), newClient, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	env.bot.ctx = ctx
	t.Cleanup(func() {
		env.bot.closeSessions()
		cancel()
	})
	return env
}

func (e *testEnv) signIn() {
	e.auth.tokens[testChat] = "tok"
}

// runTask runs the next task dispatched to the bot loop.
func (e *testEnv) runTask(t *testing.T) {
	t.Helper()
	select {
	case task := <-e.bot.tasks:
		task()
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for dispatched task")
	}
}

func command(cmd, args string) *tgbotapi.Message {
	text := "/" + cmd
	if args != "" {
		text += " " + args
	}
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: testChat},
		From: &tgbotapi.User{ID: 1},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len("/" + cmd)},
		},
	}
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		From:    &tgbotapi.User{ID: 1, UserName: "tester"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat}},
	}
}

// photoCallback is a tap on a button of the photo message messageID.
func photoCallback(data string, messageID int) *tgbotapi.CallbackQuery {
	cb := callback(data)
	cb.Message.MessageID = messageID
	return cb
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("reply missing %q, got:\n%s", want, got)
	}
}

var errBoom = errors.New("boom")
