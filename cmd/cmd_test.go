package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/gitguide/internal/config"
	guideerrors "github.com/conneroisu/gitguide/internal/errors"
	"github.com/conneroisu/gitguide/internal/settings"
)

// resetFlags puts every flag back to its default so commands do not leak
// state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListTable(t *testing.T) {
	out, err := run(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "Core Concepts")
	assert.Contains(t, out, "commits")
	assert.Contains(t, out, "Total: 7 articles in 4 categories")
}

func TestListJSON(t *testing.T) {
	out, err := run(t, "list", "-f", "json")
	require.NoError(t, err)

	var listing []listedCategory
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing, 4)
	assert.Equal(t, "Getting Started", listing[0].Name)
	assert.Equal(t, "intro", listing[0].Articles[0].ID)
	assert.Equal(t, "/docs/intro", listing[0].Articles[0].Path)
}

func TestListYAML(t *testing.T) {
	out, err := run(t, "list", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Core Concepts")
	assert.Contains(t, out, "id: branching")
}

func TestListRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "list", "-f", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestListContentDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.yaml"), []byte(`- id: stash
  category: Tools
  title: Stashing
  description: Park work in progress.
`), 0o644))

	// Underscores are normalized to dashes.
	out, err := run(t, "list", "--content_dir", dir, "-f", "json")
	require.NoError(t, err)

	var listing []listedCategory
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "stash", listing[0].Articles[0].ID)
}

func TestListMissingContentDir(t *testing.T) {
	_, err := run(t, "list", "--content-dir", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestTOCCommand(t *testing.T) {
	out, err := run(t, "toc", "commits")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "- Overview (#overview)", lines[0])
	assert.Contains(t, lines, "  - The three areas (#the-three-areas)")
	assert.NotContains(t, out, "stage-and-commit")
}

func TestTOCCommandJSON(t *testing.T) {
	out, err := run(t, "toc", "branching", "-f", "json")
	require.NoError(t, err)

	var headings []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &headings))
	assert.Equal(t, "overview", headings[0]["id"])
}

func TestTOCUnknownArticle(t *testing.T) {
	_, err := run(t, "toc", "rebasing")
	require.Error(t, err)
	assert.True(t, guideerrors.IsNotFound(err))

	_, err = run(t, "toc")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	out, err := run(t, "export", "commits")
	require.NoError(t, err)
	assert.Contains(t, out, "# Commits and the Staging Area")
	assert.Contains(t, out, "```bash")
	assert.Contains(t, out, "git add README.md")

	path := filepath.Join(t.TempDir(), "commits.md")
	_, err = run(t, "export", "commits", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Commits and the Staging Area")
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "02-core-concepts.yaml\n  record \"branching\": last_updated: warning:")
	assert.Contains(t, out, `pages show "February 2026" instead`)
	assert.NotContains(t, out, "01-getting-started.yaml")
	assert.Contains(t, out, "7 articles, 0 errors, 1 warnings")

	_, err = run(t, "validate", "--strict")
	assert.Error(t, err)
}

const escapedIDsYAML = `- id: intro
  category: Start
  title: Intro
  overview: Start here.
- id: git basics
  category: Start
  title: Git Basics
  overview: Spaces in the id.
- id: ci/cd
  category: Start
  title: CI/CD
  overview: A slash in the id.
`

func TestEscapedIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.yaml"), []byte(escapedIDsYAML), 0o644))

	for _, id := range []string{"git basics", "ci/cd"} {
		out, err := run(t, "toc", id, "--content-dir", dir)
		require.NoError(t, err, id)
		assert.Equal(t, "- Overview (#overview)\n", out)
	}

	out, err := run(t, "validate", "--content-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "3 articles, 0 errors, 0 warnings\n", out)
}

func TestValidateReportsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("- id: [unterminated"), 0o644))

	_, err := run(t, "validate", "--content-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestThemeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	t.Setenv("GITGUIDE_SITE_SETTINGS_FILE", path)

	out, err := run(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = run(t, "theme", "dark")
	require.NoError(t, err)
	assert.Contains(t, out, "Default theme set to dark")
	assert.FileExists(t, path)

	out, err = run(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	_, err = run(t, "theme", "sepia")
	assert.ErrorIs(t, err, settings.ErrInvalidTheme)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gitguide ")
	assert.Contains(t, out, "Platform: ")

	out, err = run(t, "version", "-f", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "release")
}

func TestDefaultTheme(t *testing.T) {
	cfg := &config.Config{}
	cfg.Site.SettingsFile = filepath.Join(t.TempDir(), "settings.yaml")

	theme, err := defaultTheme(cfg)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeLight, theme)

	require.NoError(t, settings.NewStore(cfg.Site.SettingsFile).Save(settings.Settings{DefaultTheme: settings.ThemeDark}))
	theme, err = defaultTheme(cfg)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeDark, theme)

	cfg.Site.DefaultTheme = "light"
	theme, err = defaultTheme(cfg)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeLight, theme, "configuration beats the saved file")

	cfg.Site.DefaultTheme = "sepia"
	_, err = defaultTheme(cfg)
	assert.Error(t, err)
}

func TestNormalizeFlagName(t *testing.T) {
	assert.Equal(t, "content-dir", string(normalizeFlagName(nil, "content_dir")))
	assert.Equal(t, "log-level", string(normalizeFlagName(nil, "log.level")))
}
