// Package presenter turns feed engine events into row-level view updates.
//
// Presenters run on a single owner goroutine supplied by the view layer
// through a Dispatch function. Every view call happens inside a
// dispatched closure or inside a method the owner itself invoked.
package presenter

import (
	"photofeed/internal/feed"
	"photofeed/internal/model"
)

// ReadAhead is how close to the end of the list a displayed row has to be
// before the next page is requested.
const ReadAhead = 3

// Dispatch runs f on the presenter's owner goroutine.
type Dispatch func(f func())

// View is the list surface a presenter drives.
type View interface {
	InsertRows(rows []int)
	ReloadRows(rows []int)
	SetLikeEnabled(row int, enabled bool)
	ShowLikeError(err error)
}

// Provider is the feed surface a presenter reads and commands.
type Provider interface {
	Count() int
	Photo(i int) (model.Photo, bool)
	FetchNextPage()
	ChangeLike(id string, liked bool) <-chan error
	Subscribe() *feed.Subscription[feed.Event]
}

// ImagesList presents the photo feed as rows.
type ImagesList struct {
	provider Provider
	view     View
	dispatch Dispatch

	sub     *feed.Subscription[feed.Event]
	pending map[int]bool
}

// NewImagesList creates a presenter bound to view and its owner goroutine.
func NewImagesList(provider Provider, view View, dispatch Dispatch) *ImagesList {
	return &ImagesList{
		provider: provider,
		view:     view,
		dispatch: dispatch,
		pending:  make(map[int]bool),
	}
}

// Attach starts forwarding feed events and loads the first page when the
// feed is still empty.
func (p *ImagesList) Attach() {
	if p.sub != nil {
		return
	}
	sub := p.provider.Subscribe()
	p.sub = sub

	go func() {
		for ev := range sub.C() {
			p.dispatch(func() {
				// Dropped once detached or re-attached.
				if p.sub == sub {
					p.HandleEvent(ev)
				}
			})
		}
	}()

	if p.provider.Count() == 0 {
		p.provider.FetchNextPage()
	}
}

// Detach stops event forwarding. Events dispatched but not yet run are
// discarded.
func (p *ImagesList) Detach() {
	if p.sub == nil {
		return
	}
	p.sub.Close()
	p.sub = nil
}

// HandleEvent applies one feed event to the view.
func (p *ImagesList) HandleEvent(ev feed.Event) {
	switch ev.Kind {
	case feed.Appended:
		if rows := ev.Rows(); len(rows) > 0 {
			p.view.InsertRows(rows)
		}
	case feed.UpdatedAt:
		p.view.ReloadRows(ev.Rows())
	default:
		p.view.ReloadRows(p.allRows())
	}
}

// NumberOfRows returns the current row count.
func (p *ImagesList) NumberOfRows() int {
	return p.provider.Count()
}

// Photo returns the photo rendered at row.
func (p *ImagesList) Photo(row int) (model.Photo, bool) {
	return p.provider.Photo(row)
}

// WillDisplay is called when row becomes visible.
func (p *ImagesList) WillDisplay(row int) {
	if row >= p.provider.Count()-ReadAhead {
		p.provider.FetchNextPage()
	}
}

// ToggleLike flips the like state of the photo at row. The like control
// stays disabled until the request completes; repeated taps meanwhile are
// ignored.
func (p *ImagesList) ToggleLike(row int) {
	if p.pending[row] {
		return
	}
	photo, ok := p.provider.Photo(row)
	if !ok {
		return
	}

	p.pending[row] = true
	p.view.SetLikeEnabled(row, false)

	res := p.provider.ChangeLike(photo.ID, !photo.IsLiked)
	go func() {
		err := <-res
		p.dispatch(func() { p.likeDone(row, err) })
	}()
}

func (p *ImagesList) likeDone(row int, err error) {
	delete(p.pending, row)
	p.view.SetLikeEnabled(row, true)
	if err != nil {
		p.view.ShowLikeError(err)
		return
	}
	p.view.ReloadRows([]int{row})
}

func (p *ImagesList) allRows() []int {
	n := p.provider.Count()
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
