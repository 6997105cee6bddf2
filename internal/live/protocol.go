// Package live keeps one heading tracker per open browser tab in sync
// over a websocket.
//
// The browser reports what it sees (navigation, render completion, DOM
// mutations, intersections, clicks, resizes) and the server answers with
// the tracker state and the commands the browser must carry out (start or
// stop watching headings, scroll). A catalog reload is broadcast to every
// tab.
package live

import "github.com/conneroisu/gitguide/internal/toc"

// Client to server message types.
const (
	TypeNavigate  = "navigate"
	TypeRendered  = "rendered"
	TypeMutated   = "mutated"
	TypeIntersect = "intersect"
	TypeActivate  = "activate"
	TypeToggle    = "toggle"
	TypeResize    = "resize"
)

// Server to client message types.
const (
	TypeState      = "state"
	TypeObserve    = "observe"
	TypeDisconnect = "disconnect"
	TypeScroll     = "scroll"
	TypeReload     = "reload"
	TypeError      = "error"
)

// Message is the single envelope used in both directions. Only the fields
// relevant to Type are set.
type Message struct {
	Type string `json:"type"`

	Route    string        `json:"route,omitempty"`
	Entries  []toc.Entry   `json:"entries,omitempty"`
	ID       string        `json:"id,omitempty"`
	Geometry *toc.Geometry `json:"geometry,omitempty"`
	Width    int           `json:"width,omitempty"`

	State      *toc.State  `json:"state,omitempty"`
	IDs        []string    `json:"ids,omitempty"`
	RootMargin string      `json:"rootMargin,omitempty"`
	Scroll     *toc.Scroll `json:"scroll,omitempty"`
	Error      string      `json:"error,omitempty"`
}
