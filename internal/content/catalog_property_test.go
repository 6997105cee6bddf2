//go:build property
// +build property

package content

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCatalogProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("catalog accepts records iff ids are unique", prop.ForAll(
		func(ids []string) bool {
			records := make([]Record, len(ids))
			unique := make(map[string]bool)
			for i, id := range ids {
				records[i] = Record{ID: id, Title: id, Category: fmt.Sprintf("c%d", i%3)}
				unique[id] = true
			}

			c, err := NewCatalog(records)
			if len(unique) != len(ids) || len(ids) == 0 {
				return err != nil
			}
			return err == nil && c.Len() == len(ids)
		},
		gen.SliceOf(gen.OneConstOf("a", "b", "c", "d", "e", "f")),
	))

	properties.Property("categories partition the catalog in order", prop.ForAll(
		func(n int) bool {
			records := make([]Record, n)
			for i := range records {
				records[i] = Record{ID: fmt.Sprintf("r%d", i), Title: "t", Category: fmt.Sprintf("c%d", i%4)}
			}
			c, err := NewCatalog(records)
			if err != nil {
				return false
			}

			total := 0
			for i, cat := range c.Categories() {
				if cat.Name != fmt.Sprintf("c%d", i) {
					return false
				}
				total += len(cat.Records)
			}
			return total == n
		},
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}
