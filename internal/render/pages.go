package render

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/dates"
	guideerrors "github.com/conneroisu/gitguide/internal/errors"
	"github.com/conneroisu/gitguide/internal/toc"
)

// IDBrowse is the id of the category overview on the intro page.
const IDBrowse = "browse"

// Intro renders the default record followed by an overview of every
// category.
func (r *Renderer) Intro(cat *content.Catalog) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		ids := newPageIDs()
		ids.Reserve(IDBrowse)

		w.render(ctx, r.section(cat.Default(), ids))

		w.raw(`<section class="section browse">` + "\n")
		w.raw(`<h2 id="` + IDBrowse + `">Browse the guide</h2>` + "\n")
		for _, category := range cat.Categories() {
			w.raw("<h3")
			w.attr("id", ids.Next(category.Name))
			w.raw(">")
			w.text(category.Name)
			w.raw("</h3>\n<ul class=\"card-list\">\n")
			for _, rec := range category.Records {
				w.raw("<li><a")
				w.attr("href", DocPath(rec.ID))
				w.raw(">")
				w.text(rec.Title)
				w.raw("</a>")
				if rec.Description != "" {
					w.raw(`<span class="card-description">`)
					w.text(rec.Description)
					w.raw("</span>")
				}
				w.raw("</li>\n")
			}
			w.raw("</ul>\n")
		}
		w.raw("</section>\n")
	})
}

// FeaturePage renders one record with previous/next links and the last
// updated date.
func (r *Renderer) FeaturePage(cat *content.Catalog, rec *content.Record) templ.Component {
	prev, next := cat.Neighbors(rec.ID)

	return component(func(ctx context.Context, w *writer) {
		w.render(ctx, r.Section(rec))

		w.raw(`<p class="last-updated">Last updated `)
		if t, ok := dates.Parse(rec.LastUpdated); ok {
			w.raw("<time")
			w.attr("datetime", t.Format("2006-01-02"))
			w.raw(">")
			w.text(dates.Format(rec.LastUpdated))
			w.raw("</time>")
		} else {
			w.text(dates.Format(rec.LastUpdated))
		}
		w.raw("</p>\n")

		if prev == nil && next == nil {
			return
		}
		w.raw(`<nav class="pager" aria-label="Pagination">`)
		if prev != nil {
			w.raw(`<a rel="prev" class="pager-prev"`)
			w.attr("href", DocPath(prev.ID))
			w.raw(">&larr; ")
			w.text(prev.Title)
			w.raw("</a>")
		}
		if next != nil {
			w.raw(`<a rel="next" class="pager-next"`)
			w.attr("href", DocPath(next.ID))
			w.raw(">")
			w.text(next.Title)
			w.raw(" &rarr;</a>")
		}
		w.raw("</nav>\n")
	})
}

// Resolved is the outcome of mapping a route onto the catalog.
type Resolved struct {
	Record *content.Record
	Intro  bool
}

// Resolve maps route onto a record. "/" is the intro page; "/docs/{id}"
// is an article, with id escaped as DocPath escapes it. Anything else, or
// an unknown id, is a NotFoundError.
func Resolve(cat *content.Catalog, route string) (Resolved, error) {
	if route == "" || route == "/" {
		return Resolved{Record: cat.Default(), Intro: true}, nil
	}
	escaped, ok := strings.CutPrefix(route, "/docs/")
	if !ok || escaped == "" {
		return Resolved{}, &guideerrors.NotFoundError{ID: route}
	}
	id, err := url.PathUnescape(escaped)
	if err != nil {
		return Resolved{}, &guideerrors.NotFoundError{ID: route}
	}
	rec, err := cat.Lookup(id)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Record: rec}, nil
}

// Content returns the main-region component for route.
func (r *Renderer) Content(cat *content.Catalog, route string) (templ.Component, Resolved, error) {
	res, err := Resolve(cat, route)
	if err != nil {
		return nil, Resolved{}, err
	}
	if res.Intro {
		return r.Intro(cat), res, nil
	}
	return r.FeaturePage(cat, res.Record), res, nil
}

// Page returns the full document for route. p supplies the theme and
// outline; its content, title and active id are filled from the route.
func (r *Renderer) Page(cat *content.Catalog, route string, p Page) (templ.Component, error) {
	body, res, err := r.Content(cat, route)
	if err != nil {
		return nil, err
	}

	p.Route = route
	p.Catalog = cat
	p.Content = body
	if res.Intro {
		p.Title = ""
		p.ActiveID = ""
	} else {
		p.Title = res.Record.Title
		p.ActiveID = res.Record.ID
	}
	p.Description = res.Record.Description
	return r.Layout(p), nil
}

// Document renders the main region of route and parses it, which is
// exactly what the heading extractor sees in the browser.
func (r *Renderer) Document(ctx context.Context, cat *content.Catalog, route string) (*html.Node, error) {
	body, _, err := r.Content(cat, route)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("<main>")
	if err := body.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", route, err)
	}
	buf.WriteString("</main>")

	doc, err := html.Parse(&buf)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", route, err)
	}
	return doc, nil
}

// Outline extracts the headings of route.
func (r *Renderer) Outline(ctx context.Context, cat *content.Catalog, route string) ([]toc.Heading, error) {
	doc, err := r.Document(ctx, cat, route)
	if err != nil {
		return nil, err
	}
	return toc.Extract(doc), nil
}
