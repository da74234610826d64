package bot

import (
	"context"
	"time"

	"photofeed/internal/feed"
	"photofeed/internal/presenter"
)

// session is the feed state of one chat: an engine, the presenter driving
// the chat view, and the goroutines forwarding their output to the bot.
type session struct {
	chatID   int64
	engine   *feed.Engine
	view     *chatView
	list     *presenter.ImagesList
	errs     *feed.Subscription[error]
	cancel   context.CancelFunc
	lastSeen time.Time
}

func newSession(parent context.Context, b *Bot, chatID int64) *session {
	ctx, cancel := context.WithCancel(parent)

	engine := feed.New(b.newClient(chatID),
		feed.WithPerPage(b.cfg.PageSize),
		feed.WithLogger(b.log.With("chat_id", chatID)),
	)
	go engine.Run(ctx)

	view := newChatView(b.api, chatID, b.log)
	list := presenter.NewImagesList(engine, view, b.dispatch)
	view.source = list

	s := &session{
		chatID: chatID,
		engine: engine,
		view:   view,
		list:   list,
		errs:   engine.SubscribeErrors(),
		cancel: cancel,
	}

	go func(errs *feed.Subscription[error]) {
		for err := range errs.C() {
			b.dispatch(func() { view.ShowFetchError(err) })
		}
	}(s.errs)

	list.Attach()
	return s
}

func (s *session) touch(now time.Time) {
	s.lastSeen = now
}

// restart clears the feed and loads it again from the first page.
func (s *session) restart() {
	s.list.Detach()
	s.engine.Reset()
	s.view.clear()
	s.list.Attach()
}

func (s *session) close() {
	s.list.Detach()
	s.errs.Close()
	s.view.closed = true
	s.cancel()
}
