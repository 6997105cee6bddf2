// Package internal contains the implementation packages for gitguide.
//
// # Package Organization
//
//   - content: the read-only article catalog loaded from YAML and markdown
//   - render: the layout shell, article sections and server-rendered outline
//   - toc: heading extraction and the per-page heading tracker
//   - live: websocket sessions that keep a tracker per browser tab
//   - server: HTTP routes, middleware and graceful shutdown
//   - watcher: debounced content file watching for catalog reloads
//   - settings: theme cookie and the saved default theme
//   - config: Viper-backed configuration with validation
//   - export: markdown export of a single article
//   - metrics: Prometheus collectors on an isolated registry
//   - logging, errors: structured logging and typed errors
//   - slug, dates, version: small shared helpers
//
// # Data Flow
//
// The catalog is loaded once (and again on a watched change) and swapped
// atomically; nothing mutates a loaded catalog. A page request renders the
// article, extracts its outline from the same rendered output and serves
// both. In the browser, toc.js reports navigation, render completion and
// scroll intersections over the websocket; the session's tracker answers
// with the active heading and the watch and scroll commands.
package internal
