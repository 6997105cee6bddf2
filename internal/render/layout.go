// Package render turns catalog records into HTML pages.
//
// Every piece is a templ.Component: the layout shell with navbar, sidebar
// and mobile menu, the article sections, code blocks and the "on this
// page" navigation. Article content always sits inside <main>, which is
// the only region the heading extractor looks at.
package render

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/settings"
	"github.com/conneroisu/gitguide/internal/toc"
)

// DefaultSiteTitle is shown in the navbar and the document title.
const DefaultSiteTitle = "Git Guide"

// StaticPrefix is where the embedded assets are mounted.
const StaticPrefix = "/static/"

// Page is everything the layout shell needs besides the main content.
type Page struct {
	Title       string
	Description string
	Route       string
	ActiveID    string
	Theme       settings.Theme
	Catalog     *content.Catalog
	TOC         toc.State
	Content     templ.Component
}

// Renderer builds page components for one site.
type Renderer struct {
	siteTitle string
	markdown  *Markdown
}

// New creates a renderer. An empty title falls back to DefaultSiteTitle.
func New(siteTitle string) *Renderer {
	if siteTitle == "" {
		siteTitle = DefaultSiteTitle
	}
	return &Renderer{siteTitle: siteTitle, markdown: NewMarkdown()}
}

// SiteTitle returns the configured site title.
func (r *Renderer) SiteTitle() string { return r.siteTitle }

// Layout is the document shell around p.Content.
func (r *Renderer) Layout(p Page) templ.Component {
	theme := p.Theme
	if theme == "" {
		theme = settings.DefaultTheme
	}
	title := r.siteTitle
	if p.Title != "" {
		title = p.Title + " | " + r.siteTitle
	}

	return component(func(ctx context.Context, w *writer) {
		w.raw("<!DOCTYPE html>\n<html lang=\"en\"")
		w.attr("class", "theme-"+string(theme))
		w.attr("data-theme", string(theme))
		w.raw(">\n<head>\n<meta charset=\"utf-8\">\n")
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
		w.raw("<title>")
		w.text(title)
		w.raw("</title>\n")
		if p.Description != "" {
			w.raw(`<meta name="description"`)
			w.attr("content", p.Description)
			w.raw(">\n")
		}
		w.raw(`<link rel="stylesheet" href="` + StaticPrefix + `style.css">` + "\n")
		w.raw("</head>\n<body")
		w.attr("data-route", p.Route)
		w.raw(">\n")

		w.render(ctx, r.Navbar(p))

		w.raw("<div class=\"layout\">\n")
		w.render(ctx, Sidebar(p.Catalog, p.ActiveID))
		w.raw("<main id=\"content\" class=\"content\">\n")
		w.render(ctx, p.Content)
		w.raw("</main>\n")
		w.raw(`<div id="toc" class="toc-mount">`)
		w.render(ctx, TOC(p.TOC))
		w.raw("</div>\n</div>\n")

		w.raw(`<script src="` + StaticPrefix + `toc.js" defer></script>` + "\n")
		w.raw("</body>\n</html>\n")
	})
}

// Navbar holds the site title, the theme toggle and the mobile menu.
func (r *Renderer) Navbar(p Page) templ.Component {
	next := p.Theme.Toggle()
	if p.Theme == "" {
		next = settings.DefaultTheme.Toggle()
	}

	return component(func(ctx context.Context, w *writer) {
		w.raw("<header class=\"navbar\">\n")
		w.raw(`<a class="brand" href="/">`)
		w.text(r.siteTitle)
		w.raw("</a>\n")

		w.raw(`<form class="theme-toggle" method="post" action="/theme">`)
		w.raw(`<button type="submit"`)
		w.attr("aria-label", "Switch to "+string(next)+" theme")
		w.attr("data-next-theme", string(next))
		w.raw(">")
		if next == settings.ThemeDark {
			w.raw("&#9790;")
		} else {
			w.raw("&#9788;")
		}
		w.raw("</button></form>\n")

		w.render(ctx, MobileMenu(p.Catalog, p.ActiveID))
		w.raw("</header>\n")
	})
}

// Sidebar lists every article grouped by category.
func Sidebar(cat *content.Catalog, activeID string) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<aside class="sidebar"><nav aria-label="Articles">` + "\n")
		w.render(ctx, navList(cat, activeID))
		w.raw("</nav></aside>\n")
	})
}

// MobileMenu is the same navigation collapsed into a disclosure for
// narrow screens.
func MobileMenu(cat *content.Catalog, activeID string) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<details class="mobile-menu"><summary aria-label="Menu">Menu</summary>`)
		w.raw(`<nav aria-label="Articles">` + "\n")
		w.render(ctx, navList(cat, activeID))
		w.raw("</nav></details>\n")
	})
}

func navList(cat *content.Catalog, activeID string) templ.Component {
	return component(func(_ context.Context, w *writer) {
		if cat == nil {
			return
		}
		for _, category := range cat.Categories() {
			w.raw(`<div class="nav-category"><p class="nav-category-name">`)
			w.text(category.Name)
			w.raw("</p>\n<ul>\n")
			for _, rec := range category.Records {
				w.raw("<li><a")
				w.attr("href", DocPath(rec.ID))
				if rec.ID == activeID {
					w.raw(` class="active" aria-current="page"`)
				}
				w.raw(">")
				w.text(rec.Title)
				w.raw("</a></li>\n")
			}
			w.raw("</ul></div>\n")
		}
	})
}

// DocPath is the route of the article with the given id.
func DocPath(id string) string {
	return "/docs/" + url.PathEscape(id)
}
