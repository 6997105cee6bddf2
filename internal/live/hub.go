package live

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/gitguide/internal/logging"
	"github.com/conneroisu/gitguide/internal/metrics"
	"github.com/conneroisu/gitguide/internal/toc"
)

const (
	defaultSendBuffer   = 64
	defaultWriteTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	readLimit           = 64 << 10
)

// Options configures a Hub.
type Options struct {
	// Source renders a route for heading extraction.
	Source toc.Source

	Logger  logging.Logger
	Metrics *metrics.Metrics

	// AllowedOrigins are host patterns accepted in addition to same-origin
	// requests.
	AllowedOrigins []string

	SettleDelay  time.Duration
	MaxSettle    time.Duration
	ScrollOffset float64
	Breakpoint   int

	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// Hub owns every live session. A single goroutine tracks membership and
// fans out broadcasts.
type Hub struct {
	opts Options
	log  logging.Logger

	register   chan *Session
	unregister chan *Session
	broadcast  chan Message
	count      atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu           sync.Mutex
	closed       bool
	sessions     sync.WaitGroup
	shutdownOnce sync.Once
}

// NewHub creates a hub and starts its loop. Call Shutdown to stop it.
func NewHub(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		opts:       opts,
		log:        opts.Logger.WithComponent("live"),
		register:   make(chan *Session, 16),
		unregister: make(chan *Session, 16),
		broadcast:  make(chan Message, 16),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// ServeHTTP upgrades the request and runs the session until either side
// closes it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	h.sessions.Add(1)
	h.mu.Unlock()
	defer h.sessions.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.AllowedOrigins,
	})
	if err != nil {
		h.log.Warn(r.Context(), err, "websocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	s := newSession(h, conn, cancel)
	select {
	case h.register <- s:
	case <-h.ctx.Done():
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	h.opts.Metrics.SessionOpened()
	h.log.Debug(ctx, "session opened", "remote", r.RemoteAddr)

	s.run(ctx)

	select {
	case h.unregister <- s:
	case <-h.ctx.Done():
	}
	h.opts.Metrics.SessionClosed()
	h.log.Debug(context.Background(), "session closed", "remote", r.RemoteAddr)
}

// Broadcast queues msg for every connected session.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
	default:
		h.log.Warn(h.ctx, nil, "broadcast queue full, dropping message", "type", msg.Type)
	}
}

// Reload tells every tab to reload the page.
func (h *Hub) Reload() {
	h.Broadcast(Message{Type: TypeReload})
}

// Sessions returns the number of registered sessions.
func (h *Hub) Sessions() int {
	return int(h.count.Load())
}

// Shutdown closes every session and stops the hub loop. It waits for the
// sessions to finish or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		h.cancel()
	})

	finished := make(chan struct{})
	go func() {
		h.sessions.Wait()
		<-h.done
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) run() {
	defer close(h.done)

	sessions := make(map[*Session]struct{})
	for {
		select {
		case s := <-h.register:
			sessions[s] = struct{}{}
			h.count.Store(int64(len(sessions)))

		case s := <-h.unregister:
			delete(sessions, s)
			h.count.Store(int64(len(sessions)))

		case msg := <-h.broadcast:
			for s := range sessions {
				s.enqueue(msg)
			}

		case <-h.ctx.Done():
			h.count.Store(0)
			return
		}
	}
}
