package orders

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupHandlerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New(HomeTemplate).Parse(`<h1>Orders</h1>{{ if . }}data{{ end }}`)))
	NewBlueprint(NewHandler()).RegisterRoutes(r.Group("/app"))
	return r
}

func TestHandlerHome(t *testing.T) {
	r := setupHandlerRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app/home", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	// The template sees no data.
	if got := w.Body.String(); got != "<h1>Orders</h1>" {
		t.Errorf("body = %q, want %q", got, "<h1>Orders</h1>")
	}
}

func TestHandlerHome_Idempotent(t *testing.T) {
	r := setupHandlerRouter()

	var first string
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app/home", nil))
		if i == 0 {
			first = w.Body.String()
			continue
		}
		if w.Body.String() != first {
			t.Fatalf("response %d differs: %q vs %q", i, w.Body.String(), first)
		}
	}
}

func TestHandlerHome_Methods(t *testing.T) {
	r := setupHandlerRouter()
	r.HandleMethodNotAllowed = true

	tests := []struct {
		method    string
		wantCode  int
		wantAllow bool
	}{
		{http.MethodGet, http.StatusOK, false},
		{http.MethodHead, http.StatusOK, false},
		{http.MethodPost, http.StatusMethodNotAllowed, true},
		{http.MethodDelete, http.StatusMethodNotAllowed, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, "/app/home", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("%s /app/home = %d, want %d", tt.method, w.Code, tt.wantCode)
			}
			allow := w.Header().Get("Allow")
			if tt.wantAllow && (!strings.Contains(allow, http.MethodGet) || !strings.Contains(allow, http.MethodHead)) {
				t.Errorf("Allow = %q, want GET and HEAD", allow)
			}
			if !tt.wantAllow && allow != "" {
				t.Errorf("Allow = %q on success, want unset", allow)
			}
		})
	}
}

func TestHandlerHome_HeadMatchesGetHeaders(t *testing.T) {
	r := setupHandlerRouter()

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/app/home", nil))
	head := httptest.NewRecorder()
	r.ServeHTTP(head, httptest.NewRequest(http.MethodHead, "/app/home", nil))

	if g, h := get.Header().Get("Content-Type"), head.Header().Get("Content-Type"); g != h {
		t.Errorf("HEAD Content-Type = %q, GET = %q", h, g)
	}
}
