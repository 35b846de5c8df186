// Package assets embeds the storefront stylesheet, scripts and images.
package assets

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed css js img
var FS embed.FS

const cacheControl = "public, max-age=86400"

// Handler serves FS with a one day cache lifetime. Directory paths return
// 404 instead of a listing. Mount it behind http.StripPrefix("/assets/", ...).
func Handler() http.Handler {
	files := http.FileServer(http.FS(FS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, r)
			return
		}
		if info, err := fs.Stat(FS, name); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	})
}
