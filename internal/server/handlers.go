package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	guideerrors "github.com/conneroisu/gitguide/internal/errors"
	"github.com/conneroisu/gitguide/internal/render"
	"github.com/conneroisu/gitguide/internal/settings"
	"github.com/conneroisu/gitguide/internal/toc"
	"github.com/conneroisu/gitguide/internal/version"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /docs/{id}", s.handleDoc)
	mux.HandleFunc("GET /api/toc/{id}", s.handleTOC)
	mux.HandleFunc("POST /theme", s.handleTheme)
	mux.Handle("GET /ws", s.hub)
	mux.Handle("GET "+render.StaticPrefix, cacheFor(time.Hour, render.StaticHandler()))
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s.addMiddleware(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, "/")
}

// handleDoc serves an article. Unknown ids go back to the intro page
// instead of an error page.
func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Catalog().Get(id); !ok {
		s.metrics.Redirected()
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.servePage(w, r, render.DocPath(id))
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, route string) {
	ctx := r.Context()
	cat := s.Catalog()

	res, err := render.Resolve(cat, route)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	headings, err := s.renderer.Outline(ctx, cat, route)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.HeadingsExtracted(len(headings))

	page, err := s.renderer.Page(cat, route, render.Page{
		Theme: settings.FromRequest(r, s.defaultTheme),
		TOC: toc.State{
			Route:        route,
			Headings:     headings,
			Presentation: toc.PresentationSidebar,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.PageViewed(res.Record.ID)
	templ.Handler(page, templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
		s.log.Error(r.Context(), err, "rendering page", "route", route)
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		})
	})).ServeHTTP(w, r)
}

type outlineResponse struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Headings []toc.Heading `json:"headings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleTOC returns the outline of an article exactly as the rendered page
// would produce it.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cat := s.Catalog()

	rec, ok := cat.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown article: " + id})
		return
	}

	headings, err := s.renderer.Outline(r.Context(), cat, render.DocPath(id))
	if err != nil {
		s.log.Error(r.Context(), err, "extracting outline", "id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "outline unavailable"})
		return
	}
	if headings == nil {
		headings = []toc.Heading{}
	}
	writeJSON(w, http.StatusOK, outlineResponse{ID: rec.ID, Title: rec.Title, Headings: headings})
}

// handleTheme flips the theme cookie, or sets it when the form names a
// theme, and sends the browser back where it came from.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	next := settings.FromRequest(r, s.defaultTheme).Toggle()
	if requested := r.PostFormValue("theme"); requested != "" {
		theme, err := settings.Parse(requested)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next = theme
	}

	settings.SetCookie(w, next)
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo returns the same-host Referer path, or "/".
func backTo(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host != r.Host || u.Path == "" {
		return "/"
	}
	return u.RequestURI()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"articles":  s.Catalog().Len(),
		"sessions":  s.hub.Sessions(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if guideerrors.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	s.log.Error(r.Context(), err, "serving page", "path", r.URL.Path)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheFor(d time.Duration, next http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(int(d/time.Second))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}
