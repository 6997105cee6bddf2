package toc

import (
	"sync"
	"time"

	"golang.org/x/net/html"
)

const (
	// RootMargin biases the viewport watch toward headings that have
	// scrolled near the top: 100px below the top edge, ignoring the bottom
	// 80% of the viewport.
	RootMargin = "-100px 0px -80% 0px"

	DefaultSettleDelay  = 100 * time.Millisecond
	DefaultMaxSettle    = time.Second
	DefaultScrollOffset = 24.0
	DefaultBreakpoint   = 1280
)

// Presentation selects how the heading list is laid out.
type Presentation string

const (
	PresentationDropdown Presentation = "dropdown"
	PresentationSidebar  Presentation = "sidebar"
)

// Source renders route and returns the resulting document. The tracker
// calls it once the page has settled.
type Source func(route string) (*html.Node, error)

// Geometry is the layout information needed to scroll to a heading.
type Geometry struct {
	// ElementTop is the heading's top edge relative to the viewport.
	ElementTop float64 `json:"elementTop"`
	// ScrollY is the current vertical scroll position of the document.
	ScrollY       float64 `json:"scrollY"`
	ViewportWidth int     `json:"viewportWidth"`
}

// Scroll tells the client how to bring a heading into view.
type Scroll struct {
	Top      float64 `json:"top"`
	Smooth   bool    `json:"smooth"`
	Fragment string  `json:"fragment"`
	// ReplaceHistory updates the location fragment without a new history entry.
	ReplaceHistory bool `json:"replace"`
}

// State is an immutable copy of the tracker state shared by both
// presentations.
type State struct {
	Route        string       `json:"route"`
	Headings     []Heading    `json:"headings"`
	Active       string       `json:"active"`
	Open         bool         `json:"open"`
	Presentation Presentation `json:"presentation"`
}

// Options configures a Tracker. Zero values fall back to the defaults.
type Options struct {
	Watcher   Watcher
	Source    Source
	Scheduler Scheduler

	SettleDelay  time.Duration
	MaxSettle    time.Duration
	ScrollOffset float64
	Breakpoint   int

	// OnChange receives a snapshot after every state change. It is called
	// without the tracker lock held.
	OnChange func(State)
	// OnError receives extraction failures from Source.
	OnError func(route string, err error)
	// OnExtract receives the headings of every completed extraction, from
	// Rendered and from the settle timer alike.
	OnExtract func(route string, headings []Heading)
}

// Tracker owns the heading list, the active heading and the dropdown flag
// for one page view. Navigation discards everything and starts over.
//
// Watcher calls happen with the tracker lock held; a Watcher must not call
// back into the tracker synchronously.
type Tracker struct {
	opts Options

	mu          sync.Mutex
	route       string
	generation  uint64
	headings    []Heading
	active      string
	open        bool
	width       int
	watching    bool
	pending     Timer
	settleSeq   uint64
	settleStart time.Time
	closed      bool
}

// NewTracker creates a tracker.
func NewTracker(opts Options) *Tracker {
	if opts.Watcher == nil {
		opts.Watcher = NopWatcher{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler{}
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.MaxSettle < opts.SettleDelay {
		opts.MaxSettle = DefaultMaxSettle
		if opts.MaxSettle < opts.SettleDelay {
			opts.MaxSettle = opts.SettleDelay
		}
	}
	if opts.ScrollOffset == 0 {
		opts.ScrollOffset = DefaultScrollOffset
	}
	if opts.Breakpoint <= 0 {
		opts.Breakpoint = DefaultBreakpoint
	}
	return &Tracker{opts: opts, width: opts.Breakpoint}
}

// Navigate starts a new page view. The previous heading list, active
// heading and dropdown state are discarded, pending extraction is
// cancelled and the viewport watch is torn down before anything for the
// new route happens. With a Source configured, extraction is scheduled for
// when the page settles.
func (t *Tracker) Navigate(route string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.teardownLocked()
	t.route = route
	t.generation++
	t.headings = nil
	t.active = ""
	t.open = false
	if t.opts.Source != nil {
		t.settleStart = t.opts.Scheduler.Now()
		t.armLocked(t.opts.SettleDelay)
	}
	state := t.snapshotLocked()
	t.mu.Unlock()

	t.emit(state)
}

// Mutated reports that the content region of route is still changing. It
// pushes extraction back by the settle delay, but never past MaxSettle
// after navigation. Reports for any other route are ignored.
func (t *Tracker) Mutated(route string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || route != t.route || t.opts.Source == nil {
		return
	}
	if t.pending == nil {
		// Already extracted; later mutations restart the settle window.
		t.settleStart = t.opts.Scheduler.Now()
	}

	delay := t.opts.SettleDelay
	elapsed := t.opts.Scheduler.Now().Sub(t.settleStart)
	if remaining := t.opts.MaxSettle - elapsed; remaining < delay {
		delay = remaining
	}
	if delay < 0 {
		delay = 0
	}
	t.armLocked(delay)
}

// Rendered is the explicit completion signal: doc is the fully rendered
// page for route. Extraction happens immediately and any pending settle
// timer is cancelled. It reports false when route is stale.
func (t *Tracker) Rendered(route string, doc *html.Node) bool {
	t.mu.Lock()
	if t.closed || route != t.route {
		t.mu.Unlock()
		return false
	}
	t.cancelPendingLocked()
	headings := Extract(doc)
	t.applyLocked(headings)
	state := t.snapshotLocked()
	t.mu.Unlock()

	t.extracted(route, headings)
	t.emit(state)
	return true
}

// Intersect handles one batch of viewport notifications. The first entry
// that is intersecting and names a current heading becomes active.
func (t *Tracker) Intersect(entries []Entry) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}

	matched := false
	for _, e := range entries {
		if e.Intersecting && t.knownLocked(e.ID) {
			t.active = e.ID
			matched = true
			break
		}
	}
	if !matched {
		t.mu.Unlock()
		return false
	}
	state := t.snapshotLocked()
	t.mu.Unlock()

	t.emit(state)
	return true
}

// Activate handles an explicit click on heading id. The heading becomes
// active immediately and a narrow viewport collapses the dropdown. The
// returned Scroll places the heading ScrollOffset pixels below the top
// and replaces the location fragment instead of pushing history.
func (t *Tracker) Activate(id string, geo Geometry) (Scroll, bool) {
	t.mu.Lock()
	if t.closed || !t.knownLocked(id) {
		t.mu.Unlock()
		return Scroll{}, false
	}

	t.active = id
	if geo.ViewportWidth > 0 {
		t.width = geo.ViewportWidth
	}
	if t.width < t.opts.Breakpoint {
		t.open = false
	}
	scroll := Scroll{
		Top:            geo.ElementTop + geo.ScrollY - t.opts.ScrollOffset,
		Smooth:         true,
		Fragment:       "#" + id,
		ReplaceHistory: true,
	}
	state := t.snapshotLocked()
	t.mu.Unlock()

	t.emit(state)
	return scroll, true
}

// Toggle flips the dropdown open flag and returns the new value.
func (t *Tracker) Toggle() bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	t.open = !t.open
	open := t.open
	state := t.snapshotLocked()
	t.mu.Unlock()

	t.emit(state)
	return open
}

// Resize records the viewport width, which selects the presentation.
func (t *Tracker) Resize(width int) {
	if width <= 0 {
		return
	}
	t.mu.Lock()
	if t.closed || width == t.width {
		t.mu.Unlock()
		return
	}
	t.width = width
	state := t.snapshotLocked()
	t.mu.Unlock()

	t.emit(state)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Close cancels pending work and tears down the watch. It is safe to call
// more than once and on a tracker that never navigated.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.teardownLocked()
	t.closed = true
}

// PresentationFor returns the layout used at the given viewport width.
func PresentationFor(width, breakpoint int) Presentation {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	if width < breakpoint {
		return PresentationDropdown
	}
	return PresentationSidebar
}

func (t *Tracker) settle(generation, seq uint64) {
	t.mu.Lock()
	if t.closed || generation != t.generation || seq != t.settleSeq {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	route := t.route
	t.mu.Unlock()

	doc, err := t.opts.Source(route)
	if err != nil {
		if t.opts.OnError != nil {
			t.opts.OnError(route, err)
		}
		return
	}

	t.mu.Lock()
	// A navigation, a newer mutation or an explicit render may have won
	// while Source was running.
	if t.closed || generation != t.generation || seq != t.settleSeq {
		t.mu.Unlock()
		return
	}
	headings := Extract(doc)
	t.applyLocked(headings)
	state := t.snapshotLocked()
	t.mu.Unlock()

	t.extracted(route, headings)
	t.emit(state)
}

func (t *Tracker) armLocked(delay time.Duration) {
	t.cancelPendingLocked()
	generation, seq := t.generation, t.settleSeq
	t.pending = t.opts.Scheduler.AfterFunc(delay, func() { t.settle(generation, seq) })
}

// cancelPendingLocked also invalidates a settle callback that already
// fired and is waiting for the lock.
func (t *Tracker) cancelPendingLocked() {
	t.settleSeq++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *Tracker) teardownLocked() {
	t.cancelPendingLocked()
	if t.watching {
		t.opts.Watcher.Disconnect()
		t.watching = false
	}
}

// applyLocked installs a fresh heading list and rebuilds the watch.
func (t *Tracker) applyLocked(headings []Heading) {
	if t.watching {
		t.opts.Watcher.Disconnect()
		t.watching = false
	}

	t.headings = headings
	if !t.knownLocked(t.active) {
		t.active = ""
	}

	if len(headings) == 0 {
		return
	}
	ids := make([]string, len(headings))
	for i, h := range headings {
		ids[i] = h.ID
	}
	t.opts.Watcher.Observe(ids, RootMargin)
	t.watching = true
}

func (t *Tracker) knownLocked(id string) bool {
	if id == "" {
		return false
	}
	for _, h := range t.headings {
		if h.ID == id {
			return true
		}
	}
	return false
}

func (t *Tracker) snapshotLocked() State {
	headings := make([]Heading, len(t.headings))
	copy(headings, t.headings)
	return State{
		Route:        t.route,
		Headings:     headings,
		Active:       t.active,
		Open:         t.open,
		Presentation: PresentationFor(t.width, t.opts.Breakpoint),
	}
}

func (t *Tracker) extracted(route string, headings []Heading) {
	if t.opts.OnExtract != nil {
		t.opts.OnExtract(route, headings)
	}
}

func (t *Tracker) emit(state State) {
	if t.opts.OnChange != nil {
		t.opts.OnChange(state)
	}
}
