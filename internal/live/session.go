package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/conneroisu/gitguide/internal/logging"
	"github.com/conneroisu/gitguide/internal/toc"
)

// Session is one browser tab. It owns the tab's tracker and forwards the
// tracker's watch commands and state to the browser.
type Session struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	cancel  context.CancelFunc
	tracker *toc.Tracker
	log     logging.Logger
}

func newSession(h *Hub, conn *websocket.Conn, cancel context.CancelFunc) *Session {
	id := uuid.NewString()
	s := &Session{
		id:     id,
		hub:    h,
		conn:   conn,
		send:   make(chan Message, h.opts.SendBuffer),
		cancel: cancel,
		log:    h.log.With("session", id),
	}
	s.tracker = toc.NewTracker(toc.Options{
		Watcher:      socketWatcher{s},
		Source:       h.opts.Source,
		SettleDelay:  h.opts.SettleDelay,
		MaxSettle:    h.opts.MaxSettle,
		ScrollOffset: h.opts.ScrollOffset,
		Breakpoint:   h.opts.Breakpoint,
		OnChange: func(state toc.State) {
			s.enqueue(Message{Type: TypeState, State: &state})
		},
		OnExtract: func(_ string, headings []toc.Heading) {
			h.opts.Metrics.HeadingsExtracted(len(headings))
		},
		OnError: func(route string, err error) {
			s.log.Warn(context.Background(), err, "heading extraction failed", "route", route)
			s.enqueue(Message{Type: TypeError, Error: "could not build the outline for " + route})
		},
	})
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Tracker exposes the session's tracker.
func (s *Session) Tracker() *toc.Tracker { return s.tracker }

// enqueue never blocks. A session whose buffer is full is too slow to keep
// up and gets dropped.
func (s *Session) enqueue(msg Message) {
	select {
	case s.send <- msg:
	default:
		s.cancel()
	}
}

func (s *Session) run(ctx context.Context) {
	defer s.tracker.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx)
	}()

	err := s.readLoop(ctx)
	s.cancel()
	<-writerDone

	switch {
	case err == nil, errors.Is(err, context.Canceled):
		s.conn.Close(websocket.StatusGoingAway, "server shutting down")
	case websocket.CloseStatus(err) != -1:
		s.conn.CloseNow()
	default:
		s.log.Debug(ctx, "session read ended", "reason", err.Error())
		s.conn.Close(websocket.StatusInternalError, "")
	}
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		var msg Message
		if err := wsjson.Read(ctx, s.conn, &msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := s.handle(ctx, msg); err != nil {
			s.enqueue(Message{Type: TypeError, Error: err.Error()})
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.hub.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.send:
			wctx, cancel := context.WithTimeout(ctx, s.hub.opts.WriteTimeout)
			err := wsjson.Write(wctx, s.conn, msg)
			cancel()
			if err != nil {
				s.cancel()
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, s.hub.opts.WriteTimeout)
			err := s.conn.Ping(pctx)
			cancel()
			if err != nil {
				s.cancel()
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// handle applies one client message to the tracker.
func (s *Session) handle(ctx context.Context, msg Message) error {
	switch msg.Type {
	case TypeNavigate:
		s.tracker.Navigate(msg.Route)

	case TypeRendered:
		if s.tracker.Snapshot().Route != msg.Route || s.hub.opts.Source == nil {
			return nil
		}
		doc, err := s.hub.opts.Source(msg.Route)
		if err != nil {
			s.log.Warn(ctx, err, "rendering for outline failed", "route", msg.Route)
			return fmt.Errorf("could not build the outline for %s", msg.Route)
		}
		s.tracker.Rendered(msg.Route, doc)

	case TypeMutated:
		s.tracker.Mutated(msg.Route)

	case TypeIntersect:
		s.tracker.Intersect(msg.Entries)

	case TypeActivate:
		var geo toc.Geometry
		if msg.Geometry != nil {
			geo = *msg.Geometry
		}
		if scroll, ok := s.tracker.Activate(msg.ID, geo); ok {
			s.enqueue(Message{Type: TypeScroll, Scroll: &scroll})
		}

	case TypeToggle:
		s.tracker.Toggle()

	case TypeResize:
		s.tracker.Resize(msg.Width)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// socketWatcher forwards the tracker's watch commands to the browser,
// which owns the actual IntersectionObserver.
type socketWatcher struct {
	s *Session
}

func (w socketWatcher) Observe(ids []string, rootMargin string) {
	w.s.enqueue(Message{Type: TypeObserve, IDs: append([]string(nil), ids...), RootMargin: rootMargin})
}

func (w socketWatcher) Disconnect() {
	w.s.enqueue(Message{Type: TypeDisconnect})
}
