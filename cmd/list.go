package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/render"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List categories and articles",
	Long: `List every article grouped by category, in catalog order.

Examples:
  gitguide list                  # Table
  gitguide list -f json          # JSON
  gitguide list --content-dir ./guide -f yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)
	addFormatFlag(listCmd, &listFormat, "table", "json", "yaml")
}

type listedArticle struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Path        string `json:"path" yaml:"path"`
}

type listedCategory struct {
	Name     string          `json:"name" yaml:"name"`
	Articles []listedArticle `json:"articles" yaml:"articles"`
}

func runList(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	if err := validateFormat(listFormat, "table", "json", "yaml"); err != nil {
		return err
	}

	listing := categoriesOf(cat)
	out := cmd.OutOrStdout()

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(listing)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(listing)
	default:
		return outputTable(out, listing, cat.Len())
	}
}

func categoriesOf(cat *content.Catalog) []listedCategory {
	var listing []listedCategory
	for _, c := range cat.Categories() {
		lc := listedCategory{Name: c.Name}
		for _, rec := range c.Records {
			lc.Articles = append(lc.Articles, listedArticle{
				ID:          rec.ID,
				Title:       rec.Title,
				Description: rec.Description,
				Path:        render.DocPath(rec.ID),
			})
		}
		listing = append(listing, lc)
	}
	return listing
}

func outputTable(out io.Writer, listing []listedCategory, total int) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "CATEGORY\tID\tTITLE")
	fmt.Fprintln(w, strings.Repeat("-", 8)+"\t"+strings.Repeat("-", 2)+"\t"+strings.Repeat("-", 5))
	for _, c := range listing {
		for _, a := range c.Articles {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, a.ID, a.Title)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d articles in %d categories\n", total, len(listing))
	return w.Flush()
}
