// Package settings holds the reader-facing preferences: the color theme
// chosen per browser and the site-wide default theme.
//
// The per-browser value lives in a cookie, read on every request and
// written on every toggle. The site default is a small YAML file under the
// XDG config directory.
package settings

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the directory used under the XDG config home.
const AppName = "gitguide"

// CookieName is the cookie holding the per-browser theme.
const CookieName = "gitguide-theme"

const cookieMaxAge = 365 * 24 * time.Hour

// Theme is the color scheme of the site.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultTheme = ThemeLight
)

// ErrInvalidTheme is returned for values other than light and dark.
var ErrInvalidTheme = errors.New("invalid theme")

// Parse validates a theme name.
func Parse(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("%w %q (expected light or dark)", ErrInvalidTheme, s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) String() string { return string(t) }

// FromRequest returns the theme stored in the request cookie, or fallback
// when the cookie is missing or holds an unknown value.
func FromRequest(r *http.Request, fallback Theme) Theme {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return fallback
	}
	theme, err := Parse(c.Value)
	if err != nil {
		return fallback
	}
	return theme
}

// SetCookie stores theme for the browser that made the request.
func SetCookie(w http.ResponseWriter, theme Theme) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(theme),
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
	})
}

// Settings is the persisted site configuration.
type Settings struct {
	DefaultTheme Theme `yaml:"default_theme"`
}

// Defaults returns the settings used when nothing has been saved.
func Defaults() Settings {
	return Settings{DefaultTheme: DefaultTheme}
}

// Validate checks every field.
func (s Settings) Validate() error {
	if _, err := Parse(string(s.DefaultTheme)); err != nil {
		return fmt.Errorf("default_theme: %w", err)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/gitguide/settings.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "settings.yaml")
}

// Store loads and saves Settings at one path.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store for path. An empty path means DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load reads the settings file. A missing file yields Defaults.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}

	out := Defaults()
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Settings{}, fmt.Errorf("parsing settings %s: %w", s.path, err)
	}
	if out.DefaultTheme == "" {
		out.DefaultTheme = DefaultTheme
	}
	if err := out.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", s.path, err)
	}
	return out, nil
}

// Save validates and writes settings, replacing the file atomically.
func (s *Store) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
