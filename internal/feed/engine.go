// Package feed keeps the canonical, paginated photo feed of one session.
//
// An Engine owns its collection and page cursor on a single goroutine
// started with Run. Network calls run on worker goroutines and hand their
// results back to that goroutine before any state is touched, so no lock
// guards the collection. Consumers learn about changes through typed
// events that carry the exact index range to redraw.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"photofeed/internal/model"
	"photofeed/internal/unsplash"
)

// DefaultPerPage is the page size requested from the API.
const DefaultPerPage = 10

var (
	// ErrPhotoNotFound is returned by ChangeLike for an unknown photo id.
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("feed engine stopped")
)

// API is the remote photo service used by the engine.
type API interface {
	ListPhotos(ctx context.Context, page, perPage int) ([]unsplash.PhotoResult, error)
	LikePhoto(ctx context.Context, id string) error
	UnlikePhoto(ctx context.Context, id string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithPerPage sets the page size.
func WithPerPage(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.perPage = n
		}
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// Engine is the feed synchronization engine.
type Engine struct {
	api     API
	perPage int
	log     *slog.Logger

	ops      chan func()
	done     chan struct{}
	events   Hub[Event]
	failures Hub[error]

	// Owned by the Run goroutine.
	ctx            context.Context
	photos         []model.Photo
	index          map[string]int
	lastLoadedPage int
	loading        bool
	cancelPage     context.CancelFunc
	generation     uint64
}

// New creates an Engine. Call Run before using it.
func New(api API, opts ...Option) *Engine {
	e := &Engine{
		api:     api,
		perPage: DefaultPerPage,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		ops:     make(chan func()),
		done:    make(chan struct{}),
		ctx:     context.Background(),
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run serves the engine until ctx is cancelled. Outstanding page requests
// are cancelled on return.
func (e *Engine) Run(ctx context.Context) {
	e.ctx = ctx
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.cancelInFlight()
			return
		case op := <-e.ops:
			op()
		}
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Subscribe registers for change events.
func (e *Engine) Subscribe() *Subscription[Event] {
	return e.events.Subscribe()
}

// SubscribeErrors registers for page fetch failures.
func (e *Engine) SubscribeErrors() *Subscription[error] {
	return e.failures.Subscribe()
}

// FetchNextPage requests the page after the last loaded one. It returns
// immediately and does nothing while a page request is in flight.
func (e *Engine) FetchNextPage() {
	e.post(e.fetchNextPage)
}

// ChangeLike asks the API to like or unlike a photo. The returned channel
// yields exactly one value once the outcome has been applied.
func (e *Engine) ChangeLike(id string, liked bool) <-chan error {
	res := make(chan error, 1)
	if !e.post(func() { e.changeLike(id, liked, res) }) {
		res <- ErrStopped
	}
	return res
}

// Reset clears the collection and cursor and cancels the page request in
// flight. No event is emitted.
func (e *Engine) Reset() {
	e.call(e.reset)
}

// Count returns the number of loaded photos.
func (e *Engine) Count() int {
	var n int
	e.call(func() { n = len(e.photos) })
	return n
}

// Photo returns the photo at index i.
func (e *Engine) Photo(i int) (model.Photo, bool) {
	var (
		p  model.Photo
		ok bool
	)
	e.call(func() {
		if i >= 0 && i < len(e.photos) {
			p, ok = e.photos[i], true
		}
	})
	return p, ok
}

// Photos returns a copy of the collection.
func (e *Engine) Photos() []model.Photo {
	var out []model.Photo
	e.call(func() { out = slices.Clone(e.photos) })
	return out
}

// LastLoadedPage returns the last successfully loaded page, 0 if none.
func (e *Engine) LastLoadedPage() int {
	var n int
	e.call(func() { n = e.lastLoadedPage })
	return n
}

// Loading reports whether a page request is in flight.
func (e *Engine) Loading() bool {
	var v bool
	e.call(func() { v = e.loading })
	return v
}

func (e *Engine) post(op func()) bool {
	select {
	case e.ops <- op:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) call(op func()) bool {
	ran := make(chan struct{})
	if !e.post(func() { op(); close(ran) }) {
		return false
	}
	<-ran
	return true
}

func (e *Engine) fetchNextPage() {
	if e.loading {
		return
	}
	page := e.lastLoadedPage + 1
	e.loading = true

	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelPage = cancel
	gen := e.generation

	e.log.Debug("fetch page", "page", page, "per_page", e.perPage)
	go func() {
		defer cancel()
		results, err := e.api.ListPhotos(ctx, page, e.perPage)
		e.post(func() { e.pageLoaded(gen, page, results, err) })
	}()
}

func (e *Engine) pageLoaded(gen uint64, page int, results []unsplash.PhotoResult, err error) {
	if gen != e.generation {
		return
	}
	defer func() {
		e.loading = false
		e.cancelPage = nil
	}()

	if err != nil {
		e.log.Error("fetch page", "page", page, "error", err)
		e.failures.Publish(fmt.Errorf("fetch page %d: %w", page, err))
		return
	}

	start := len(e.photos)
	for _, r := range results {
		if _, dup := e.index[r.ID]; dup {
			continue
		}
		e.index[r.ID] = len(e.photos)
		e.photos = append(e.photos, r.ToPhoto())
	}
	e.lastLoadedPage = page

	e.log.Debug("page loaded", "page", page, "received", len(results), "appended", len(e.photos)-start)
	e.events.Publish(Event{Kind: Appended, Start: start, End: len(e.photos)})
}

func (e *Engine) changeLike(id string, liked bool, res chan<- error) {
	if _, ok := e.index[id]; !ok {
		res <- ErrPhotoNotFound
		return
	}
	gen := e.generation
	ctx := e.ctx

	go func() {
		var err error
		if liked {
			err = e.api.LikePhoto(ctx, id)
		} else {
			err = e.api.UnlikePhoto(ctx, id)
		}
		if !e.post(func() { res <- e.likeChanged(gen, id, liked, err) }) {
			res <- ErrStopped
		}
	}()
}

func (e *Engine) likeChanged(gen uint64, id string, liked bool, err error) error {
	if err != nil {
		e.log.Warn("change like", "photo_id", id, "liked", liked, "error", err)
		return fmt.Errorf("change like %s: %w", id, err)
	}
	// The collection has moved on; its state wins over a stale response.
	if gen != e.generation {
		return nil
	}
	i, ok := e.index[id]
	if !ok {
		return nil
	}
	e.photos[i] = e.photos[i].WithLiked(liked)
	e.events.Publish(Event{Kind: UpdatedAt, Index: i})
	return nil
}

func (e *Engine) reset() {
	e.cancelInFlight()
	e.generation++
	e.photos = nil
	e.index = make(map[string]int)
	e.lastLoadedPage = 0
	e.loading = false
}

func (e *Engine) cancelInFlight() {
	if e.cancelPage != nil {
		e.cancelPage()
		e.cancelPage = nil
	}
}
