package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		wantStatus  int
		wantOrigin  string
		wantCreds   string
		wantMethods bool
	}{
		{"explicit origin gets credentials", []string{"https://pawtine.app"}, "https://pawtine.app", http.MethodGet, http.StatusNoContent, "https://pawtine.app", "true", true},
		{"wildcard echoes origin without credentials", []string{"*"}, "http://localhost:5173", http.MethodGet, http.StatusNoContent, "http://localhost:5173", "", true},
		{"foreign origin gets no headers", []string{"https://pawtine.app"}, "https://evil.example", http.MethodGet, http.StatusNoContent, "", "", false},
		{"preflight short-circuits", []string{"*"}, "http://localhost:5173", http.MethodOptions, http.StatusOK, "http://localhost:5173", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/routines", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("allow-credentials = %q, want %q", got, tt.wantCreds)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods") != ""; got != tt.wantMethods {
				t.Errorf("allow-methods present = %v, want %v", got, tt.wantMethods)
			}
		})
	}
}

func TestCORSPreflightMaxAge(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://pawtine.app/")
	rec := httptest.NewRecorder()

	CORS([]string{"https://pawtine.app/"})(http.NotFoundHandler()).ServeHTTP(rec, req)

	// The configured origin is normalized, the request origin is not.
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow-origin = %q, want empty for trailing-slash origin", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://pawtine.app")
	rec = httptest.NewRecorder()
	CORS([]string{"https://pawtine.app/"})(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("max-age = %q, want 600", got)
	}
}
