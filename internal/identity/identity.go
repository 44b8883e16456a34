// Package identity resolves the owner behind each request: an anonymous
// per-device cookie, or a fixed demo owner.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

const (
	AnonCookieName        = "pawtine_anon_id"
	SessionHeaderName     = "X-Pawtine-Session-ID"
	DefaultSessionIDValue = "default"
	anonCookieMaxAge      = 30 * 24 * time.Hour
)

type contextKey int

const (
	userIDKey contextKey = iota
	sessionIDKey
)

var (
	anonIDPattern    = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)
	sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)
)

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext extracts the tab session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return DefaultSessionIDValue
}

// WithUser returns ctx carrying the owner and tab session IDs.
func WithUser(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, sessionIDKey, sanitizeSessionID(sessionID))
}

// resolver decides which owner a request acts for.
type resolver struct {
	repo    store.Repository
	secure  bool
	fixedID string
}

// owner returns the pinned owner, the owner named by a valid cookie, or a
// freshly minted anonymous owner. Cookie owners get their cookie renewed.
func (res resolver) owner(w http.ResponseWriter, r *http.Request) (string, error) {
	if res.fixedID != "" {
		return res.fixedID, nil
	}

	id := ""
	if c, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(c.Value) {
		id = c.Value
	} else {
		minted, err := generateAnonID()
		if err != nil {
			return "", err
		}
		id = minted
	}
	res.setCookie(w, id)
	return id, nil
}

func (res resolver) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(anonCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(anonCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   res.secure,
	})
}

// ensureUser creates the user row on first sight. The profile fields stay
// empty until onboarding or a profile update fills them.
func (res resolver) ensureUser(ctx context.Context, userID string) error {
	user, err := res.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if user != nil {
		return nil
	}

	now := time.Now()
	return res.repo.UpsertUser(ctx, &domain.User{
		ID:        userID,
		Timezone:  now.Location().String(),
		CreatedAt: now,
	})
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func isValidAnonID(id string) bool {
	return anonIDPattern.MatchString(id)
}

func sanitizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !sessionIDPattern.MatchString(id) {
		return DefaultSessionIDValue
	}
	return id
}

// sessionIDFromRequest reads the tab session from the header, or from the
// query string for websocket upgrades that cannot set headers.
func sessionIDFromRequest(r *http.Request) string {
	sid := r.Header.Get(SessionHeaderName)
	if sid == "" {
		sid = r.URL.Query().Get("session_id")
	}
	return sanitizeSessionID(sid)
}

// Middleware attaches the owner and tab session to every request and makes
// sure the owner has a user row. A non-empty fixedUserID pins all requests
// to that owner and skips cookies entirely.
func Middleware(repo store.Repository, isDev bool, fixedUserID string) func(http.Handler) http.Handler {
	res := resolver{repo: repo, secure: !isDev, fixedID: fixedUserID}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := res.owner(w, r)
			if err != nil {
				slog.Error("Failed to establish identity", "error", err)
				http.Error(w, `{"error":"failed to establish anonymous identity"}`, http.StatusInternalServerError)
				return
			}
			if err := res.ensureUser(r.Context(), userID); err != nil {
				slog.Error("Failed to initialize user", "error", err, "user_id", userID)
				http.Error(w, `{"error":"failed to initialize user"}`, http.StatusInternalServerError)
				return
			}

			ctx := WithUser(r.Context(), userID, sessionIDFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
