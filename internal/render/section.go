package render

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/slug"
	"github.com/conneroisu/gitguide/internal/toc"
)

// Section ids are stable so links and the outline can rely on them.
const (
	IDOverview           = "overview"
	IDExplanation        = "explanation"
	IDCodeExamples       = toc.CodeExamplesMarker
	IDWorkflowSteps      = "workflow-steps"
	IDKeyTakeaways       = "key-takeaways"
	IDCommonMistakes     = "common-mistakes"
	IDWarnings           = "warnings"
	IDTips               = "tips"
	IDInterviewQuestions = "interview-questions"
)

var sectionIDs = []string{
	IDOverview,
	IDExplanation,
	IDCodeExamples,
	IDWorkflowSteps,
	IDKeyTakeaways,
	IDCommonMistakes,
	IDWarnings,
	IDTips,
	IDInterviewQuestions,
}

// newPageIDs returns a slug generator with the fixed section ids taken.
func newPageIDs() *slug.Unique {
	ids := &slug.Unique{}
	for _, id := range sectionIDs {
		ids.Reserve(id)
	}
	return ids
}

// Section renders every present field of rec in the fixed page order.
func (r *Renderer) Section(rec *content.Record) templ.Component {
	return r.section(rec, newPageIDs())
}

func (r *Renderer) section(rec *content.Record, ids *slug.Unique) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw("<article class=\"article\"")
		w.attr("data-id", rec.ID)
		w.raw(">\n<header class=\"article-header\">")
		if rec.Category != "" {
			w.raw(`<p class="eyebrow">`)
			w.text(rec.Category)
			w.raw("</p>")
		}
		w.raw("<h1>")
		w.text(rec.Title)
		w.raw("</h1>")
		if rec.Description != "" {
			w.raw(`<p class="description">`)
			w.text(rec.Description)
			w.raw("</p>")
		}
		w.raw("</header>\n")

		if rec.Overview != "" {
			openSection(w, IDOverview, "Overview")
			paragraphs(w, rec.Overview)
			w.raw("</section>\n")
		}

		if strings.TrimSpace(rec.Explanation) != "" {
			body, err := r.markdown.Convert(rec.Explanation, ids)
			if err != nil {
				w.err = err
				return
			}
			openSection(w, IDExplanation, "Explanation")
			w.raw(`<div class="prose">`)
			w.raw(body)
			w.raw("</div></section>\n")
		}

		if len(rec.CodeExamples) > 0 {
			w.raw(`<section class="section code-examples"`)
			w.attr("data-toc", toc.CodeExamplesMarker)
			w.raw(">\n")
			w.raw(`<h2 id="` + IDCodeExamples + `">Code Examples</h2>` + "\n")
			for _, ex := range rec.CodeExamples {
				w.raw(`<div class="example">`)
				w.raw("<h3")
				w.attr("id", ids.Next(ex.Title))
				w.raw(">")
				w.text(ex.Title)
				w.raw("</h3>\n")
				w.render(ctx, CodeBlock(ex))
				if ex.Explanation != "" {
					w.raw(`<p class="example-explanation">`)
					w.text(ex.Explanation)
					w.raw("</p>")
				}
				w.raw("</div>\n")
			}
			w.raw("</section>\n")
		}

		if len(rec.WorkflowSteps) > 0 {
			openSection(w, IDWorkflowSteps, "Workflow Steps")
			list(w, "ol", "steps", rec.WorkflowSteps)
			w.raw("</section>\n")
		}
		if len(rec.KeyTakeaways) > 0 {
			openSection(w, IDKeyTakeaways, "Key Takeaways")
			list(w, "ul", "takeaways", rec.KeyTakeaways)
			w.raw("</section>\n")
		}
		if len(rec.CommonMistakes) > 0 {
			openSection(w, IDCommonMistakes, "Common Mistakes")
			list(w, "ul", "mistakes", rec.CommonMistakes)
			w.raw("</section>\n")
		}
		if len(rec.Warnings) > 0 {
			openSection(w, IDWarnings, "Warnings")
			callouts(w, "warning", rec.Warnings)
			w.raw("</section>\n")
		}
		if len(rec.Tips) > 0 {
			openSection(w, IDTips, "Tips")
			callouts(w, "tip", rec.Tips)
			w.raw("</section>\n")
		}

		if len(rec.InterviewQuestions) > 0 {
			openSection(w, IDInterviewQuestions, "Interview Questions")
			for _, q := range rec.InterviewQuestions {
				w.raw(`<details class="question"><summary>`)
				w.text(q.Question)
				w.raw("</summary>")
				paragraphs(w, q.Answer)
				w.raw("</details>\n")
			}
			w.raw("</section>\n")
		}

		w.raw("</article>\n")
	})
}

// CodeBlock renders one example's code with a copy button. Highlighting is
// done client side from the language class.
func CodeBlock(ex content.CodeExample) templ.Component {
	lang := ex.Language
	if lang == "" {
		lang = "text"
	}
	return component(func(_ context.Context, w *writer) {
		w.raw(`<div class="code-block">`)
		w.raw(`<button type="button" class="copy-button"`)
		w.attr("data-copy", ex.Code)
		w.attr("aria-label", "Copy code")
		w.raw(">Copy</button>")
		w.raw("<pre><code")
		w.attr("class", "language-"+lang)
		w.raw(">")
		w.text(ex.Code)
		w.raw("</code></pre></div>\n")
	})
}

func openSection(w *writer, id, title string) {
	w.raw(`<section class="section">` + "\n<h2")
	w.attr("id", id)
	w.raw(">")
	w.text(title)
	w.raw("</h2>\n")
}

// paragraphs splits text on blank lines.
func paragraphs(w *writer, text string) {
	for _, p := range strings.Split(strings.TrimSpace(text), "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		w.raw("<p>")
		w.text(p)
		w.raw("</p>\n")
	}
}

func list(w *writer, tag, class string, items []string) {
	w.raw("<" + tag)
	w.attr("class", class)
	w.raw(">\n")
	for _, item := range items {
		w.raw("<li>")
		w.text(item)
		w.raw("</li>\n")
	}
	w.raw("</" + tag + ">\n")
}

func callouts(w *writer, kind string, items []string) {
	for _, item := range items {
		w.raw(`<div role="note"`)
		w.attr("class", "callout callout-"+kind)
		w.raw(">")
		w.text(item)
		w.raw("</div>\n")
	}
}
