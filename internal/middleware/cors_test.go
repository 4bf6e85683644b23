package middleware

import (
	"net/http"
	"testing"
)

func TestCORS_PreflightAdvertisesReadOnlyMethods(t *testing.T) {
	r := newOrdersRouter(CORS(DefaultCORSConfig()))

	w := doRequest(r, http.MethodOptions, "/app/home", map[string]string{
		"Origin":                        "https://shop.example.com",
		"Access-Control-Request-Method": "GET",
	})

	if w.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS /app/home = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, HEAD, OPTIONS" {
		t.Errorf("Allow-Methods = %q, want %q", got, "GET, HEAD, OPTIONS")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Max-Age = %q, want 86400", got)
	}
	if w.Body.Len() != 0 {
		t.Errorf("preflight body = %q, want empty", w.Body.String())
	}
}

func TestCORS_SimpleRequestReachesPage(t *testing.T) {
	r := newOrdersRouter(CORS(DefaultCORSConfig()))

	w := doRequest(r, http.MethodGet, "/app/home", map[string]string{"Origin": "https://shop.example.com"})

	if w.Code != http.StatusOK || w.Body.String() != "<h1>Orders</h1>" {
		t.Fatalf("GET /app/home = %d %q, want orders page", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("expected Access-Control-Allow-Headers on an admitted origin")
	}
}

func TestCORS_SameOriginUntouched(t *testing.T) {
	r := newOrdersRouter(CORS(DefaultCORSConfig()))

	w := doRequest(r, http.MethodGet, "/app/home", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /app/home = %d, want 200", w.Code)
	}
	for _, h := range []string{"Access-Control-Allow-Origin", "Vary"} {
		if got := w.Header().Get(h); got != "" {
			t.Errorf("%s = %q without Origin, want unset", h, got)
		}
	}
}

func TestCORS_AllowOrigins(t *testing.T) {
	allowlist := DefaultCORSConfig()
	allowlist.AllowOrigins = []string{"https://shop.example.com"}

	credentialed := DefaultCORSConfig()
	credentialed.AllowCredentials = true

	denyAll := DefaultCORSConfig()
	denyAll.AllowOrigins = []string{}

	tests := []struct {
		name      string
		cfg       CORSConfig
		origin    string
		wantAllow string
		wantCreds string
	}{
		{"listed origin echoed", allowlist, "https://shop.example.com", "https://shop.example.com", ""},
		{"unlisted origin ignored", allowlist, "https://evil.example.com", "", ""},
		{"empty list admits nobody", denyAll, "https://shop.example.com", "", ""},
		{"wildcard with credentials echoes origin", credentialed, "https://a.example", "https://a.example", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newOrdersRouter(CORS(tt.cfg))
			w := doRequest(r, http.MethodGet, "/app/home", map[string]string{"Origin": tt.origin})

			if w.Code != http.StatusOK {
				t.Fatalf("GET /app/home = %d, want 200", w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
		})
	}
}

func TestCORS_UnlistedPreflightNotShortCircuited(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://shop.example.com"}
	r := newOrdersRouter(CORS(cfg))

	w := doRequest(r, http.MethodOptions, "/app/home", map[string]string{"Origin": "https://evil.example.com"})

	if w.Code == http.StatusNoContent {
		t.Fatal("preflight from an unlisted origin answered with 204")
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Errorf("Allow-Methods = %q, want unset", got)
	}
}
