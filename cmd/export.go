package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gitguide/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write an article as GitHub-flavored markdown",
	Long: `Write one article back out as markdown, with code blocks, numbered
workflow steps and alert blocks for warnings and tips.

Examples:
  gitguide export commits
  gitguide export commits -o commits.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportOutput string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	rec, err := cat.Lookup(args[0])
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}

	if err := export.Markdown(out, rec); err != nil {
		return fmt.Errorf("exporting %s: %w", rec.ID, err)
	}
	if exportOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", exportOutput)
	}
	return nil
}
