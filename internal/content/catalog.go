package content

import (
	"fmt"
	"strings"

	guideerrors "github.com/conneroisu/gitguide/internal/errors"
)

// Catalog is an immutable, ordered collection of records.
type Catalog struct {
	records    []*Record
	byID       map[string]*Record
	position   map[string]int
	categories []Category
}

// NewCatalog validates records and builds the catalog. Identifiers must be
// non-empty and unique across the whole collection; every offending record
// is reported. The records are copied, so later changes to the input slice
// do not leak in.
func NewCatalog(records []Record) (*Catalog, error) {
	collector := guideerrors.NewErrorCollector()

	c := &Catalog{
		records:  make([]*Record, 0, len(records)),
		byID:     make(map[string]*Record, len(records)),
		position: make(map[string]int, len(records)),
	}

	for i := range records {
		rec := records[i]
		rec.ID = strings.TrimSpace(rec.ID)

		if rec.ID == "" {
			collector.Add(guideerrors.ContentError{
				File:     rec.Source,
				Field:    "id",
				Message:  fmt.Sprintf("record #%d (%q) has no identifier", i+1, rec.Title),
				Severity: guideerrors.ErrorSeverityError,
			})
			continue
		}
		if prev, dup := c.byID[rec.ID]; dup {
			collector.Add(guideerrors.ContentError{
				File:     rec.Source,
				RecordID: rec.ID,
				Field:    "id",
				Message:  fmt.Sprintf("duplicate identifier (first defined in %s)", sourceName(prev)),
				Severity: guideerrors.ErrorSeverityError,
			})
			continue
		}

		stored := &rec
		c.position[rec.ID] = len(c.records)
		c.records = append(c.records, stored)
		c.byID[rec.ID] = stored
	}

	if err := collector.Err(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if len(c.records) == 0 {
		return nil, fmt.Errorf("invalid catalog: %w", &guideerrors.ContentError{
			Message:  "catalog contains no records",
			Severity: guideerrors.ErrorSeverityFatal,
		})
	}

	c.categories = groupByCategory(c.records)
	return c, nil
}

func sourceName(r *Record) string {
	if r.Source == "" {
		return "an earlier record"
	}
	return r.Source
}

// groupByCategory keeps categories in order of first appearance.
func groupByCategory(records []*Record) []Category {
	index := make(map[string]int)
	var out []Category
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, Category{Name: r.Category})
		}
		out[i].Records = append(out[i].Records, r)
	}
	return out
}

// Get looks up a record by identifier.
func (c *Catalog) Get(id string) (*Record, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Lookup is Get with a typed not-found error.
func (c *Catalog) Lookup(id string) (*Record, error) {
	if r, ok := c.byID[id]; ok {
		return r, nil
	}
	return nil, &guideerrors.NotFoundError{ID: id}
}

// All returns the records in catalog order.
func (c *Catalog) All() []*Record {
	out := make([]*Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Default is the record served on the default route.
func (c *Catalog) Default() *Record {
	return c.records[0]
}

// Categories returns the records grouped by category.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Records: append([]*Record(nil), cat.Records...)}
	}
	return out
}

// Neighbors returns the records before and after id in catalog order.
func (c *Catalog) Neighbors(id string) (prev, next *Record) {
	i, ok := c.position[id]
	if !ok {
		return nil, nil
	}
	if i > 0 {
		prev = c.records[i-1]
	}
	if i+1 < len(c.records) {
		next = c.records[i+1]
	}
	return prev, next
}
