// Package web embeds the Pawtine landing page and dashboard shell.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

const indexFile = "index.html"

// reservedPrefixes are server routes that must never fall back to the shell.
var reservedPrefixes = []string{"api/", "ws/"}

// SPAHandler serves files from dist/ and answers every other page path with
// index.html so client-side views (/dashboard, /settings, /profile) load.
func SPAHandler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to open embedded dist: " + err.Error())
	}
	files := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		for _, prefix := range reservedPrefixes {
			if strings.HasPrefix(name+"/", prefix) {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
		}

		if name != "" && name != indexFile && exists(subFS, name) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			files.ServeHTTP(w, r)
			return
		}

		// The shell changes with every deploy and must be revalidated.
		w.Header().Set("Cache-Control", "no-cache")
		r.URL.Path = "/"
		files.ServeHTTP(w, r)
	})
}

func exists(fsys fs.FS, name string) bool {
	f, err := fsys.Open(name)
	if err != nil {
		return false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("web: failed to close embedded file", "path", name, "error", closeErr)
		}
	}()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}
