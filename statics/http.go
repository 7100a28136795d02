package statics

import (
	"embed"
	"net/http"
	"net/url"
)

//go:embed www/*
var www embed.FS

// ServeStatics serves an alternative directory, or the embedded site when
// staticsDir is empty.
func ServeStatics(staticsDir string) http.HandlerFunc {
	if staticsDir == "" {
		return AddPrefix("/www", http.FileServer(http.FS(www)))
	}
	return http.FileServer(http.Dir(staticsDir)).ServeHTTP
}

// AddPrefix is the counterpart of http.StripPrefix, it moves the request
// under the embedded www/ root.
func AddPrefix(prefix string, h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r2 := new(http.Request)
		*r2 = *r
		r2.URL = new(url.URL)
		*r2.URL = *r.URL
		r2.URL.Path = prefix + r.URL.Path
		r2.URL.RawPath = prefix + r.URL.Path
		h.ServeHTTP(w, r2)
	}
}
