package presenter

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"photofeed/internal/feed"
	"photofeed/internal/model"
)

const waitTimeout = 2 * time.Second

var _ Provider = (*feed.Engine)(nil)

// --- stubs ---

type likeCall struct {
	ID    string
	Liked bool
}

type stubProvider struct {
	mu        sync.Mutex
	photos    []model.Photo
	fetches   int
	likeErr   error
	likeCalls []likeCall
	events    feed.Hub[feed.Event]
}

func (s *stubProvider) setPhotos(photos ...model.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = photos
}

func (s *stubProvider) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

func (s *stubProvider) Photo(i int) (model.Photo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.photos) {
		return model.Photo{}, false
	}
	return s.photos[i], true
}

func (s *stubProvider) FetchNextPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
}

func (s *stubProvider) ChangeLike(id string, liked bool) <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likeCalls = append(s.likeCalls, likeCall{ID: id, Liked: liked})
	res := make(chan error, 1)
	res <- s.likeErr
	return res
}

func (s *stubProvider) Subscribe() *feed.Subscription[feed.Event] {
	return s.events.Subscribe()
}

func (s *stubProvider) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

type likeState struct {
	Row     int
	Enabled bool
}

type viewSpy struct {
	inserted    []int
	reloaded    []int
	likeEnabled []likeState
	likeErrors  []error
}

func (v *viewSpy) InsertRows(rows []int) { v.inserted = append(v.inserted, rows...) }
func (v *viewSpy) ReloadRows(rows []int) { v.reloaded = append(v.reloaded, rows...) }
func (v *viewSpy) SetLikeEnabled(row int, enabled bool) {
	v.likeEnabled = append(v.likeEnabled, likeState{Row: row, Enabled: enabled})
}
func (v *viewSpy) ShowLikeError(err error) { v.likeErrors = append(v.likeErrors, err) }

// queue stands in for the owner goroutine: the test runs dispatched
// closures itself, in order.
type queue struct {
	ch chan func()
}

func newQueue() *queue {
	return &queue{ch: make(chan func(), 64)}
}

func (q *queue) dispatch(f func()) { q.ch <- f }

func (q *queue) next(t *testing.T) func() {
	t.Helper()
	select {
	case f := <-q.ch:
		return f
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for dispatched task")
		return nil
	}
}

func (q *queue) run(t *testing.T) {
	t.Helper()
	q.next(t)()
}

func makePhoto(id string, liked bool) model.Photo {
	return model.Photo{
		ID:       id,
		Size:     model.Size{Width: 1000, Height: 500},
		ThumbURL: fmt.Sprintf("https://example.com/%s_thumb.jpg", id),
		FullURL:  fmt.Sprintf("https://example.com/%s_full.jpg", id),
		IsLiked:  liked,
	}
}

func newTestPresenter() (*ImagesList, *stubProvider, *viewSpy, *queue) {
	provider := &stubProvider{}
	view := &viewSpy{}
	q := newQueue()
	return NewImagesList(provider, view, q.dispatch), provider, view, q
}

// --- tests ---

func TestAttachFetchesWhenEmpty(t *testing.T) {
	tests := []struct {
		name        string
		photos      []model.Photo
		wantFetches int
	}{
		{name: "empty feed", wantFetches: 1},
		{name: "already loaded", photos: []model.Photo{makePhoto("1", false)}, wantFetches: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, provider, _, _ := newTestPresenter()
			provider.setPhotos(tt.photos...)

			p.Attach()
			defer p.Detach()

			if diff := cmp.Diff(tt.wantFetches, provider.fetchCount()); diff != "" {
				t.Errorf("fetch count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAppendedEventInsertsTail(t *testing.T) {
	p, provider, view, q := newTestPresenter()
	provider.setPhotos(makePhoto("1", false))

	p.Attach()
	defer p.Detach()

	provider.setPhotos(makePhoto("1", false), makePhoto("2", false), makePhoto("3", false))
	provider.events.Publish(feed.Event{Kind: feed.Appended, Start: 1, End: 3})
	q.run(t)

	if diff := cmp.Diff([]int{1, 2}, view.inserted); diff != "" {
		t.Errorf("inserted rows mismatch (-want +got):\n%s", diff)
	}
	if len(view.reloaded) != 0 {
		t.Errorf("unexpected reloads: %v", view.reloaded)
	}
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name         string
		ev           feed.Event
		wantInserted []int
		wantReloaded []int
	}{
		{name: "appended", ev: feed.Event{Kind: feed.Appended, Start: 0, End: 2}, wantInserted: []int{0, 1}},
		{name: "empty append", ev: feed.Event{Kind: feed.Appended, Start: 3, End: 3}},
		{name: "updated at", ev: feed.Event{Kind: feed.UpdatedAt, Index: 1}, wantReloaded: []int{1}},
		{name: "full reload", ev: feed.Event{Kind: feed.FullReload}, wantReloaded: []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, provider, view, _ := newTestPresenter()
			provider.setPhotos(makePhoto("1", false), makePhoto("2", false), makePhoto("3", false))

			p.HandleEvent(tt.ev)

			if diff := cmp.Diff(tt.wantInserted, view.inserted); diff != "" {
				t.Errorf("inserted mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantReloaded, view.reloaded); diff != "" {
				t.Errorf("reloaded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToggleLikeSuccess(t *testing.T) {
	p, provider, view, q := newTestPresenter()
	provider.setPhotos(makePhoto("1", false))

	p.ToggleLike(0)

	if diff := cmp.Diff([]likeState{{Row: 0, Enabled: false}}, view.likeEnabled); diff != "" {
		t.Fatalf("like state before completion (-want +got):\n%s", diff)
	}

	q.run(t)

	want := []likeState{{Row: 0, Enabled: false}, {Row: 0, Enabled: true}}
	if diff := cmp.Diff(want, view.likeEnabled); diff != "" {
		t.Errorf("like state mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, view.reloaded); diff != "" {
		t.Errorf("reloaded mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]likeCall{{ID: "1", Liked: true}}, provider.likeCalls); diff != "" {
		t.Errorf("like calls mismatch (-want +got):\n%s", diff)
	}
	if len(view.likeErrors) != 0 {
		t.Errorf("unexpected like errors: %v", view.likeErrors)
	}
}

func TestToggleLikeUnlikes(t *testing.T) {
	p, provider, _, q := newTestPresenter()
	provider.setPhotos(makePhoto("1", true))

	p.ToggleLike(0)
	q.run(t)

	if diff := cmp.Diff([]likeCall{{ID: "1", Liked: false}}, provider.likeCalls); diff != "" {
		t.Errorf("like calls mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleLikeFailureShowsError(t *testing.T) {
	errFail := errors.New("fail")
	p, provider, view, q := newTestPresenter()
	provider.setPhotos(makePhoto("1", false))
	provider.likeErr = errFail

	p.ToggleLike(0)
	q.run(t)

	if len(view.likeErrors) != 1 || !errors.Is(view.likeErrors[0], errFail) {
		t.Fatalf("expected one like error, got %v", view.likeErrors)
	}
	if len(view.reloaded) != 0 {
		t.Errorf("failed like must not reload, got %v", view.reloaded)
	}
	if diff := cmp.Diff(likeState{Row: 0, Enabled: true}, view.likeEnabled[len(view.likeEnabled)-1]); diff != "" {
		t.Errorf("like control not re-enabled (-want +got):\n%s", diff)
	}
}

func TestToggleLikeIgnoresRepeatedTaps(t *testing.T) {
	p, provider, _, q := newTestPresenter()
	provider.setPhotos(makePhoto("1", false))

	p.ToggleLike(0)
	p.ToggleLike(0)
	q.run(t)

	if diff := cmp.Diff(1, len(provider.likeCalls)); diff != "" {
		t.Errorf("like call count mismatch (-want +got):\n%s", diff)
	}

	// Once completed the row accepts taps again.
	p.ToggleLike(0)
	q.run(t)
	if diff := cmp.Diff(2, len(provider.likeCalls)); diff != "" {
		t.Errorf("like call count mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleLikeUnknownRow(t *testing.T) {
	p, provider, view, _ := newTestPresenter()
	provider.setPhotos(makePhoto("1", false))

	p.ToggleLike(5)

	if len(provider.likeCalls) != 0 || len(view.likeEnabled) != 0 {
		t.Errorf("unknown row must be ignored, calls=%v states=%v", provider.likeCalls, view.likeEnabled)
	}
}

func TestWillDisplayReadAhead(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		row         int
		wantFetches int
	}{
		{name: "last row", count: 3, row: 2, wantFetches: 1},
		{name: "within read-ahead", count: 10, row: 7, wantFetches: 1},
		{name: "before read-ahead", count: 10, row: 6, wantFetches: 0},
		{name: "first row of short list", count: 3, row: 0, wantFetches: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, provider, _, _ := newTestPresenter()
			photos := make([]model.Photo, tt.count)
			for i := range photos {
				photos[i] = makePhoto(fmt.Sprint(i), false)
			}
			provider.setPhotos(photos...)

			p.WillDisplay(tt.row)

			if diff := cmp.Diff(tt.wantFetches, provider.fetchCount()); diff != "" {
				t.Errorf("fetch count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetachDropsPendingEvents(t *testing.T) {
	p, provider, view, q := newTestPresenter()
	provider.setPhotos(makePhoto("1", false))

	p.Attach()
	provider.events.Publish(feed.Event{Kind: feed.UpdatedAt, Index: 0})
	task := q.next(t)

	p.Detach()
	task()

	if len(view.reloaded) != 0 {
		t.Errorf("detached presenter touched the view: %v", view.reloaded)
	}
}
