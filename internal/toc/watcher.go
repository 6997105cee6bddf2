package toc

import "time"

// Entry is one viewport-intersection notification.
type Entry struct {
	ID           string `json:"id"`
	Intersecting bool   `json:"intersecting"`
}

// Watcher is the viewport-intersection capability. Observe replaces any
// previous watch; Disconnect must be safe to call when nothing is watched.
type Watcher interface {
	Observe(ids []string, rootMargin string)
	Disconnect()
}

// NopWatcher is used when the platform has no intersection support. The
// tracker still works, it just never highlights on scroll.
type NopWatcher struct{}

func (NopWatcher) Observe([]string, string) {}
func (NopWatcher) Disconnect()              {}

// Timer is a cancellable pending call.
type Timer interface {
	Stop() bool
}

// Scheduler provides time to the tracker so tests can drive it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemScheduler uses the time package.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
func (SystemScheduler) Now() time.Time                            { return time.Now() }
