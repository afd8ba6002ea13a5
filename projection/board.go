// Package projection keeps what each actor currently sees: the trade window
// they are in and the notices addressed to them.
// Does not emit events.
package projection

import (
	"sync"
	"time"

	"trade-lab/contract"
	"trade-lab/domain"

	"github.com/samber/lo"
)

const (
	DefaultPageSize  = 20
	DefaultInboxSize = 50
)

var _ contract.Display = (*Board)(nil)

type Notice struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Page is one page of a trade window. Both sides are cut at the same page.
type Page struct {
	View       domain.SessionView `json:"view"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

// Board is the in-memory display of trades.
type Board struct {
	mu        sync.RWMutex
	pageSize  int
	inboxSize int
	views     map[domain.ActorID]domain.SessionView
	inboxes   map[domain.ActorID][]Notice
	now       func() time.Time
}

func NewBoard(pageSize, inboxSize int) *Board {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	return &Board{
		pageSize:  pageSize,
		inboxSize: inboxSize,
		views:     make(map[domain.ActorID]domain.SessionView),
		inboxes:   make(map[domain.ActorID][]Notice),
		now:       time.Now,
	}
}

// Render shows view to both participants. A closed session is taken down.
func (b *Board) Render(view domain.SessionView) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, actor := range view.Participants() {
		if view.Status == domain.SessionClosed {
			if current, ok := b.views[actor]; ok && current.SessionID == view.SessionID {
				delete(b.views, actor)
			}
			continue
		}
		b.views[actor] = view
	}
}

// Notify appends a notice to the actor's inbox, dropping the oldest past the bound.
func (b *Board) Notify(actor domain.ActorID, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inbox := append(b.inboxes[actor], Notice{Message: message, At: b.now().UTC()})
	if len(inbox) > b.inboxSize {
		inbox = lo.Drop(inbox, len(inbox)-b.inboxSize)
	}
	b.inboxes[actor] = inbox
}

// Page returns the 1-based page of the trade the actor is in. Out of range
// pages are clamped.
func (b *Board) Page(actor domain.ActorID, page int) (Page, bool) {
	b.mu.RLock()
	view, ok := b.views[actor]
	b.mu.RUnlock()
	if !ok {
		return Page{}, false
	}

	total := b.TotalPages(view)
	page = lo.Clamp(page, 1, total)
	start := (page - 1) * b.pageSize
	for i, side := range view.Sides {
		view.Sides[i].Lines = lo.Subset(side.Lines, start, uint(b.pageSize))
	}
	return Page{View: view, Page: page, TotalPages: total}, true
}

// TotalPages is the page count of the longest side, at least one.
func (b *Board) TotalPages(view domain.SessionView) int {
	longest := lo.Max(lo.Map(view.Sides[:], func(s domain.SideView, _ int) int { return len(s.Lines) }))
	return max(1, (longest+b.pageSize-1)/b.pageSize)
}

// Notices returns a copy of the actor's inbox, oldest first.
func (b *Board) Notices(actor domain.ActorID) []Notice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Notice{}, b.inboxes[actor]...)
}
