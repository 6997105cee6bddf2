package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gitguide/internal/render"
	"github.com/conneroisu/gitguide/internal/toc"
)

var tocCmd = &cobra.Command{
	Use:   "toc <id>",
	Short: "Print the outline of an article",
	Long: `Render an article and print the headings its "on this page" list
would show, in page order.

Examples:
  gitguide toc commits
  gitguide toc branching -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runTOC,
}

var tocFormat string

func init() {
	rootCmd.AddCommand(tocCmd)
	addFormatFlag(tocCmd, &tocFormat, "text", "json")
}

func runTOC(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	if _, err := cat.Lookup(args[0]); err != nil {
		return err
	}

	headings, err := render.New("").Outline(cmd.Context(), cat, render.DocPath(args[0]))
	if err != nil {
		return err
	}
	if headings == nil {
		headings = []toc.Heading{}
	}

	out := cmd.OutOrStdout()
	if tocFormat == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(headings)
	}

	for _, h := range headings {
		fmt.Fprintf(out, "%s- %s (#%s)\n", strings.Repeat("  ", h.Level-2), h.Text, h.ID)
	}
	return nil
}
