// Package middleware provides HTTP middleware for the Pawtine API.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const preflightMaxAge = 10 * time.Minute

var (
	allowedMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	allowedHeaders = strings.Join([]string{"Content-Type", "X-Pawtine-Session-ID"}, ", ")
)

type originPolicy struct {
	any      bool
	explicit map[string]bool
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{explicit: make(map[string]bool, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.explicit[o] = true
		}
	}
	return p
}

// match reports whether origin may call the API and whether it may send
// credentials. Credentials are only granted to explicitly listed origins.
func (p originPolicy) match(origin string) (allowed, credentials bool) {
	if origin == "" {
		return false, false
	}
	if p.explicit[origin] {
		return true, true
	}
	return p.any, false
}

// CORS echoes allowed origins for the browser frontend and answers preflight
// requests without reaching the router.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed, creds := policy.match(origin); allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", allowedMethods)
				h.Set("Access-Control-Allow-Headers", allowedHeaders)
				h.Add("Vary", "Origin")
				if creds {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Max-Age", strconv.Itoa(int(preflightMaxAge.Seconds())))
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
