// Package export renders catalog records back to GitHub-flavored markdown.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/dates"
)

// Markdown writes rec to w. Sections follow the page order and empty
// fields are skipped.
func Markdown(w io.Writer, rec *content.Record) error {
	if rec == nil {
		return fmt.Errorf("export: nil record")
	}

	md := markdown.NewMarkdown(w)

	md.H1(rec.Title)
	md.PlainText("")
	if rec.Description != "" {
		md.PlainText(rec.Description)
		md.PlainText("")
	}

	if rec.Overview != "" {
		md.H2("Overview")
		md.PlainText("")
		md.PlainText(rec.Overview)
		md.PlainText("")
	}

	if body := strings.TrimSpace(rec.Explanation); body != "" {
		md.H2("Explanation")
		md.PlainText("")
		md.PlainText(body)
		md.PlainText("")
	}

	writeExamples(md, rec.CodeExamples)

	if len(rec.WorkflowSteps) > 0 {
		md.H2("Workflow Steps")
		md.PlainText("")
		md.OrderedList(rec.WorkflowSteps...)
		md.PlainText("")
	}

	writeBullets(md, "Key Takeaways", rec.KeyTakeaways)
	writeBullets(md, "Common Mistakes", rec.CommonMistakes)

	if len(rec.Warnings) > 0 {
		md.H2("Warnings")
		md.PlainText("")
		for _, warning := range rec.Warnings {
			md.Warningf("%s", warning)
			md.PlainText("")
		}
	}

	if len(rec.Tips) > 0 {
		md.H2("Tips")
		md.PlainText("")
		for _, tip := range rec.Tips {
			md.Tip(tip)
			md.PlainText("")
		}
	}

	if len(rec.InterviewQuestions) > 0 {
		md.H2("Interview Questions")
		md.PlainText("")
		for _, q := range rec.InterviewQuestions {
			md.H3(q.Question)
			md.PlainText("")
			md.PlainText(q.Answer)
			md.PlainText("")
		}
	}

	md.Note("Last updated " + dates.Format(rec.LastUpdated))

	return md.Build()
}

func writeExamples(md *markdown.Markdown, examples []content.CodeExample) {
	if len(examples) == 0 {
		return
	}
	md.H2("Code Examples")
	md.PlainText("")
	for _, ex := range examples {
		md.H3(ex.Title)
		md.PlainText("")
		lang := ex.Language
		if lang == "" {
			lang = "text"
		}
		md.CodeBlocks(markdown.SyntaxHighlight(lang), strings.TrimRight(ex.Code, "\n"))
		md.PlainText("")
		if ex.Explanation != "" {
			md.PlainText(ex.Explanation)
			md.PlainText("")
		}
	}
}

func writeBullets(md *markdown.Markdown, title string, items []string) {
	if len(items) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}
