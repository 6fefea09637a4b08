package module

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func echoPath() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(req.URL.Path))
	})
}

func TestNewValidatesPrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantErr bool
	}{
		{"valid", "/api", false},
		{"empty", "", true},
		{"no leading slash", "api", true},
		{"multi level", "/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.prefix, echoPath())
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
		})
	}
}

func TestModuleStripsPrefix(t *testing.T) {
	m, err := New("/api", echoPath())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/api/jobs", "/jobs"},
		{"/api", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.Serve(rec, httptest.NewRequest("GET", tt.path, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("inner path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModuleMiddlewareOrder(t *testing.T) {
	m, err := New("/api", echoPath())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tag := func(s string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Add("X-Order", s)
				next.ServeHTTP(w, req)
			})
		}
	}
	m.Use(tag("first"))
	m.Use(tag("second"))

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/jobs", nil))

	got := rec.Header().Values("X-Order")
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("middleware order = %v", got)
	}
}

func TestRouterDispatch(t *testing.T) {
	router := NewRouter()
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})

	m, err := New("/api", echoPath())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	router.Mount(m)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"module path", "/api/jobs", "/jobs"},
		{"trailing slash normalized", "/api/jobs/", "/jobs"},
		{"native fallback", "/healthz", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}
