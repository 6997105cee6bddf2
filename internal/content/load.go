package content

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	guideerrors "github.com/conneroisu/gitguide/internal/errors"
	"github.com/conneroisu/gitguide/internal/slug"
)

//go:embed builtin
var builtinFS embed.FS

// Builtin returns the catalog files that ship with the binary.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		panic(fmt.Sprintf("content: embedded catalog missing: %v", err))
	}
	return sub
}

// LoadBuiltin loads the embedded catalog.
func LoadBuiltin() (*Catalog, error) {
	return Load(Builtin())
}

// Load reads every catalog file under fsys in lexical path order. YAML
// files hold a list of records; markdown files hold one record in their
// frontmatter with the body as its explanation. Files with other
// extensions are ignored.
func Load(fsys fs.FS) (*Catalog, error) {
	collector := guideerrors.NewErrorCollector()
	var records []Record

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		var (
			parsed []Record
			err    error
		)
		switch strings.ToLower(path.Ext(p)) {
		case ".yaml", ".yml":
			parsed, err = readYAML(fsys, p)
		case ".md", ".markdown":
			var rec Record
			rec, err = readMarkdown(fsys, p)
			parsed = []Record{rec}
		default:
			return nil
		}

		if err != nil {
			collector.Add(guideerrors.ContentError{
				File:     p,
				Message:  err.Error(),
				Severity: guideerrors.ErrorSeverityError,
			})
			return nil
		}
		records = append(records, parsed...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking catalog: %w", err)
	}

	if err := collector.Err(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	return NewCatalog(records)
}

func readYAML(fsys fs.FS, p string) ([]Record, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}

	var records []Record
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	for i := range records {
		records[i].Source = p
		fillDefaults(&records[i], p)
	}
	return records, nil
}

func readMarkdown(fsys fs.FS, p string) (Record, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return Record{}, err
	}

	var rec Record
	body, err := frontmatter.Parse(bytes.NewReader(data), &rec)
	if err != nil {
		return Record{}, fmt.Errorf("parsing frontmatter: %w", err)
	}

	if strings.TrimSpace(rec.Explanation) == "" {
		rec.Explanation = strings.TrimSpace(string(body))
	}
	if rec.ID == "" {
		rec.ID = slug.Make(baseName(p))
	}
	rec.Source = p
	fillDefaults(&rec, p)
	return rec, nil
}

func fillDefaults(rec *Record, p string) {
	if strings.TrimSpace(rec.Title) == "" && rec.ID != "" {
		rec.Title = titleFrom(rec.ID)
	}
	if rec.Category == "" {
		dir := path.Dir(p)
		if dir == "." {
			rec.Category = "General"
		} else {
			rec.Category = titleFrom(path.Base(dir))
		}
	}
}

func baseName(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

func titleFrom(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(name)
}
