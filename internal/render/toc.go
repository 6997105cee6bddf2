package render

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/conneroisu/gitguide/internal/toc"
)

// TOC renders the "on this page" navigation from one tracker state: a
// dropdown for narrow viewports and a vertical list for wide ones. The
// stylesheet picks one at the breakpoint; both read the same state. Zero
// headings render nothing.
func TOC(state toc.State) templ.Component {
	return component(func(_ context.Context, w *writer) {
		if len(state.Headings) == 0 {
			return
		}
		presentation := state.Presentation
		if presentation == "" {
			presentation = toc.PresentationSidebar
		}

		w.raw(`<nav class="toc" aria-label="On this page"`)
		w.attr("data-presentation", string(presentation))
		w.raw(">\n")

		w.raw(`<details class="toc-dropdown"`)
		if state.Open {
			w.raw(" open")
		}
		w.raw("><summary>On this page</summary>\n")
		tocList(w, state)
		w.raw("</details>\n")

		w.raw(`<div class="toc-sidebar"><p class="toc-title">On this page</p>` + "\n")
		tocList(w, state)
		w.raw("</div>\n</nav>\n")
	})
}

func tocList(w *writer, state toc.State) {
	w.raw("<ul class=\"toc-list\">\n")
	for _, h := range state.Headings {
		w.raw("<li")
		w.attr("class", "toc-item level-"+strconv.Itoa(h.Level))
		w.raw("><a")
		w.attr("href", "#"+h.ID)
		w.attr("data-toc-id", h.ID)
		if h.ID == state.Active {
			w.raw(` class="active" aria-current="location"`)
		}
		w.raw(">")
		w.text(h.Text)
		w.raw("</a></li>\n")
	}
	w.raw("</ul>\n")
}
