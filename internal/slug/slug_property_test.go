//go:build property
// +build property

package slug

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSlugProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("idempotent", prop.ForAll(
		func(s string) bool {
			once := Make(s)
			return Make(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("no doubled or dangling dashes", prop.ForAll(
		func(s string) bool {
			out := Make(s)
			if out == "" {
				return true
			}
			return !strings.Contains(out, "--") &&
				!strings.HasPrefix(out, "-") &&
				!strings.HasSuffix(out, "-")
		},
		gen.AnyString(),
	))

	properties.Property("unique never repeats", prop.ForAll(
		func(words []string) bool {
			var u Unique
			seen := make(map[string]bool)
			for _, w := range words {
				id := u.Next(w)
				if seen[id] {
					return false
				}
				seen[id] = true
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("Overview", "overview", "Tips", "tips 1", "", "?")),
	))

	properties.TestingRun(t)
}
