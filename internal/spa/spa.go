// Package spa serves the built single-page app and falls back to index.html
// for client-side routes.
package spa

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/example/recipebook/internal/platform/api"
	"github.com/example/recipebook/internal/platform/httpserver"
)

// reserved prefixes belong to the API and operational endpoints; unknown
// paths below them get a JSON 404 instead of the app shell.
var reserved = []string{"/v1", "/healthz", "/readyz", "/metrics"}

type Handler struct {
	dir   string
	index string
	files http.Handler
}

// New serves dir, which must contain index.html.
func New(dir string) (*Handler, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	index := filepath.Join(abs, "index.html")
	st, err := os.Stat(index)
	if err != nil {
		return nil, fmt.Errorf("spa: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("spa: %s is a directory", index)
	}
	return &Handler{dir: abs, index: index, files: http.FileServer(http.Dir(abs))}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	if isReserved(r.URL.Path) || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		api.NotFound(w, "NOT_FOUND", "Not found", rid)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if clean != "/" {
		st, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
		switch {
		case err == nil && !st.IsDir():
			if strings.HasPrefix(clean, "/assets/") {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}
			h.files.ServeHTTP(w, r)
			return
		case err != nil && !errors.Is(err, os.ErrNotExist):
			api.Internal(w, rid)
			return
		}
		// A missing file that looks like an asset is a real 404.
		if path.Ext(clean) != "" {
			api.NotFound(w, "NOT_FOUND", "Not found", rid)
			return
		}
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, h.index)
}

func isReserved(p string) bool {
	for _, prefix := range reserved {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
