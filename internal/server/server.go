// Package server serves the guide over HTTP: the intro and article pages,
// the outline API, the live websocket and the theme toggle.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/conneroisu/gitguide/internal/config"
	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/live"
	"github.com/conneroisu/gitguide/internal/logging"
	"github.com/conneroisu/gitguide/internal/metrics"
	"github.com/conneroisu/gitguide/internal/render"
	"github.com/conneroisu/gitguide/internal/settings"
	"github.com/conneroisu/gitguide/internal/watcher"
)

// Options are the collaborators of a Server. Only Config is required.
type Options struct {
	Config *config.Config
	// Catalog is served as-is; when nil it is loaded from Config.Content.Dir
	// or the embedded catalog.
	Catalog      *content.Catalog
	DefaultTheme settings.Theme
	Logger       logging.Logger
	Metrics      *metrics.Metrics
}

// Server is the guide web server
type Server struct {
	config       *config.Config
	log          logging.Logger
	metrics      *metrics.Metrics
	renderer     *render.Renderer
	hub          *live.Hub
	defaultTheme settings.Theme
	catalog      atomic.Pointer[content.Catalog]
	handler      http.Handler

	serverMutex sync.RWMutex
	httpServer  *http.Server
	watcher     *watcher.FileWatcher
	stopped     bool

	shutdownOnce sync.Once
	shutdownErr  error
}

// LoadCatalog loads the catalog under dir, or the embedded catalog when
// dir is empty.
func LoadCatalog(dir string) (*content.Catalog, error) {
	if dir == "" {
		return content.LoadBuiltin()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content directory %s is not a directory", dir)
	}
	return content.Load(os.DirFS(dir))
}

// New creates a server. It does not listen until Start is called, but
// Handler is usable immediately.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("server: config is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.DefaultTheme == "" {
		opts.DefaultTheme = settings.DefaultTheme
	}

	cat := opts.Catalog
	if cat == nil {
		op := logging.StartOperation(opts.Logger.WithComponent("server"), "load_catalog")
		var err error
		cat, err = LoadCatalog(opts.Config.Content.Dir)
		if err != nil {
			op.EndWithError(context.Background(), err)
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		op.End(context.Background(), "articles", cat.Len())
	}

	s := &Server{
		config:       opts.Config,
		log:          opts.Logger.WithComponent("server"),
		metrics:      opts.Metrics,
		renderer:     render.New(opts.Config.Site.Title),
		defaultTheme: opts.DefaultTheme,
	}
	s.catalog.Store(cat)

	s.hub = live.NewHub(live.Options{
		Source:         s.document,
		Logger:         opts.Logger.WithComponent("live"),
		Metrics:        opts.Metrics,
		AllowedOrigins: opts.Config.Server.AllowedOrigins,
		SettleDelay:    opts.Config.TOC.SettleDelay,
		MaxSettle:      opts.Config.TOC.MaxSettle,
		ScrollOffset:   opts.Config.TOC.ScrollOffset,
		Breakpoint:     opts.Config.TOC.Breakpoint,
	})
	s.handler = s.routes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Catalog returns the catalog currently being served.
func (s *Server) Catalog() *content.Catalog { return s.catalog.Load() }

// Hub returns the live session hub.
func (s *Server) Hub() *live.Hub { return s.hub }

func (s *Server) document(route string) (*html.Node, error) {
	return s.renderer.Document(context.Background(), s.Catalog(), route)
}

// ReloadCatalog re-reads the content directory. A catalog that fails to
// load or validate leaves the current one in place. Open tabs are told to
// reload on success.
func (s *Server) ReloadCatalog(ctx context.Context) error {
	dir := s.config.Content.Dir
	if dir == "" {
		return nil
	}

	op := logging.StartOperation(s.log.With("dir", dir), "reload_catalog")
	cat, err := LoadCatalog(dir)
	s.metrics.Reloaded(err)
	if err != nil {
		op.EndWithError(ctx, fmt.Errorf("keeping previous catalog: %w", err))
		return err
	}

	s.catalog.Store(cat)
	op.End(ctx, "articles", cat.Len())
	s.hub.Reload()
	return nil
}

// Start serves until Shutdown is called. With content watching enabled,
// changes under the content directory reload the catalog.
func (s *Server) Start(ctx context.Context) error {
	if s.config.Content.Watch && s.config.Content.Dir != "" {
		if err := s.setupFileWatcher(ctx); err != nil {
			return err
		}
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.serverMutex.Lock()
	if s.stopped {
		s.serverMutex.Unlock()
		ln.Close()
		return nil
	}
	if s.httpServer != nil {
		s.serverMutex.Unlock()
		return fmt.Errorf("server already started")
	}
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.log.Info(context.Background(), "listening", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) setupFileWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(s.config.Content.Debounce, s.log)
	if err != nil {
		return err
	}
	fw.AddFilter(watcher.ContentFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		s.log.Debug(ctx, "content changed", "files", len(events))
		// Failures are logged and counted by ReloadCatalog.
		_ = s.ReloadCatalog(ctx)
		return nil
	})

	if err := fw.AddRecursive(s.config.Content.Dir); err != nil {
		fw.Stop()
		return fmt.Errorf("watching %s: %w", s.config.Content.Dir, err)
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return err
	}

	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()
	if s.stopped {
		fw.Stop()
		return nil
	}
	s.watcher = fw
	s.log.Info(ctx, "watching content", "dir", s.config.Content.Dir)
	return nil
}

// Shutdown stops the watcher, closes every live session and then the HTTP
// server. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.log.Info(ctx, "shutting down")

		s.serverMutex.Lock()
		s.stopped = true
		fw := s.watcher
		server := s.httpServer
		s.serverMutex.Unlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.log.Warn(ctx, err, "stopping watcher")
			}
		}

		// Websockets are hijacked, so http.Server.Shutdown would not wait
		// for them.
		if err := s.hub.Shutdown(ctx); err != nil {
			s.shutdownErr = fmt.Errorf("closing live sessions: %w", err)
		}

		if server != nil {
			if err := server.Shutdown(ctx); err != nil && s.shutdownErr == nil {
				s.shutdownErr = err
			}
		}
	})
	return s.shutdownErr
}
