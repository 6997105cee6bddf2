package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/dates"
	guideerrors "github.com/conneroisu/gitguide/internal/errors"
	"github.com/conneroisu/gitguide/internal/render"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for errors",
	Long: `Load the catalog, render every article and report problems.

Load failures (unreadable files, empty or duplicate ids) and pages that
fail to render are errors. Dates that cannot be parsed are warnings: the
page shows "Last updated February 2026" instead. Problems are grouped by
the file that defines the article.

Examples:
  gitguide validate
  gitguide validate --content-dir ./guide --strict`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var validateStrict bool

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	collector := guideerrors.NewErrorCollector()
	r := render.New("")

	for _, rec := range cat.All() {
		if _, err := r.Outline(cmd.Context(), cat, render.DocPath(rec.ID)); err != nil {
			collector.Add(guideerrors.ContentError{
				File:     rec.Source,
				RecordID: rec.ID,
				Message:  err.Error(),
				Severity: guideerrors.ErrorSeverityError,
			})
		}
		if rec.LastUpdated != "" {
			if _, ok := dates.Parse(rec.LastUpdated); !ok {
				collector.Add(guideerrors.ContentError{
					File:     rec.Source,
					RecordID: rec.ID,
					Field:    "last_updated",
					Message:  fmt.Sprintf("%q is not a date; pages show %q instead", rec.LastUpdated, dates.Fallback),
					Severity: guideerrors.ErrorSeverityWarning,
				})
			}
		}
	}

	out := cmd.OutOrStdout()
	var errorCount, warningCount int
	for _, file := range sourceFiles(cat) {
		problems := collector.GetErrorsByFile(file)
		if len(problems) == 0 {
			continue
		}
		fmt.Fprintln(out, displayFile(file))
		for _, ce := range problems {
			ce.File = ""
			fmt.Fprintf(out, "  %s\n", ce.Error())
			if ce.Severity >= guideerrors.ErrorSeverityError {
				errorCount++
			} else {
				warningCount++
			}
		}
	}
	fmt.Fprintf(out, "%d articles, %d errors, %d warnings\n", cat.Len(), errorCount, warningCount)

	if errorCount > 0 || (validateStrict && warningCount > 0) {
		return fmt.Errorf("catalog has problems")
	}
	return nil
}

// sourceFiles lists the files that define articles, in catalog order.
func sourceFiles(cat *content.Catalog) []string {
	seen := make(map[string]bool)
	var files []string
	for _, rec := range cat.All() {
		if !seen[rec.Source] {
			seen[rec.Source] = true
			files = append(files, rec.Source)
		}
	}
	return files
}

func displayFile(file string) string {
	if file == "" {
		return "(no file)"
	}
	return file
}
