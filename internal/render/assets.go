package render

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Static returns the embedded stylesheet and client script.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("render: embedded assets missing: " + err.Error())
	}
	return sub
}

// StaticHandler serves Static under StaticPrefix.
func StaticHandler() http.Handler {
	return http.StripPrefix(StaticPrefix, http.FileServer(http.FS(Static())))
}
