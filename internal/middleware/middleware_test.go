package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-admin/internal/services"
	"storefront-admin/internal/session"
	"storefront-admin/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func newSessionStack(t *testing.T) (*services.AuthService, *session.Manager) {
	t.Helper()
	auth := services.NewAuthService("test-secret", zerolog.Nop())
	sessions := session.NewManager(storage.NewMemoryStore(), session.NewSealer("test-secret"), zerolog.Nop())
	return auth, sessions
}

func browserCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == BrowserCookieName {
			return c
		}
	}
	return nil
}

func TestBrowserSessionIssuesAndReusesCookie(t *testing.T) {
	auth, sessions := newSessionStack(t)

	var seen []string
	h := BrowserSession(auth, sessions, false, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store, ok := GetSession(r)
		if !ok {
			t.Fatal("no session in request context")
		}
		seen = append(seen, store.ID())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := browserCookie(t, rec.Result())
	if cookie == nil {
		t.Fatal("expected a browser cookie on first visit")
	}
	if !cookie.HttpOnly {
		t.Error("browser cookie should be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if browserCookie(t, rec.Result()) != nil {
		t.Error("valid cookie should not be reissued")
	}

	if len(seen) != 2 || seen[0] != seen[1] {
		t.Fatalf("session ids = %v, want the same id twice", seen)
	}
	if sessions.Len() != 0 {
		t.Errorf("sessions.Len() = %d, anonymous browsers should not be cached", sessions.Len())
	}
}

func TestBrowserSessionReplacesForgedCookie(t *testing.T) {
	auth, sessions := newSessionStack(t)
	other := services.NewAuthService("other-secret", zerolog.Nop())
	forged, err := other.GenerateToken(other.NewBrowserID())
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	h := BrowserSession(auth, sessions, false, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: forged})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookie := browserCookie(t, rec.Result())
	if cookie == nil || cookie.Value == forged {
		t.Fatal("forged cookie should be replaced")
	}
}

func TestRequireAuthenticated(t *testing.T) {
	_, sessions := newSessionStack(t)

	store, err := sessions.Get(context.Background(), "b1")
	if err != nil {
		t.Fatalf("sessions.Get() error: %v", err)
	}

	called := false
	h := RequireAuthenticated()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req = req.WithContext(context.WithValue(req.Context(), SessionKey, store))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("got %d %q, want 303 /login", rec.Code, rec.Header().Get("Location"))
	}
	if called {
		t.Fatal("handler ran without a token")
	}

	if err := store.Login(context.Background(), "T1"); err != nil {
		t.Fatalf("store.Login() error: %v", err)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called {
		t.Fatal("handler did not run for an authenticated session")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0), 1)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
}

func TestRateLimiterIsPerClient(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0), 1)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.7:4000"); code != http.StatusOK {
		t.Fatalf("attacker first request = %d, want 200", code)
	}
	if code := send("203.0.113.7:4001"); code != http.StatusTooManyRequests {
		t.Fatalf("attacker second request = %d, want 429", code)
	}
	if code := send("198.51.100.2:5000"); code != http.StatusOK {
		t.Fatalf("other client = %d, want 200 while another IP is limited", code)
	}
	if rl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rl.Len())
	}
}

func TestErrorHandlingRecoversPanic(t *testing.T) {
	h := ErrorHandling(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	var got string
	h := RequestLogging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got != "req-1" || rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("request id = %q / %q, want req-1", got, rec.Header().Get("X-Request-ID"))
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(header) == "" {
			t.Errorf("missing %s", header)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://admin.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRequireBearer(t *testing.T) {
	h := RequireBearer("m3trics")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer m3trics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	open := RequireBearer("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("empty token status = %d, want 200", rec.Code)
	}
}
