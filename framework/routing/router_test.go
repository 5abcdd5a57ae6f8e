package routing_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-housekeeper/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Verbs(t *testing.T) {
	r := routing.New(zerolog.Nop())
	r.Get("/items", okHandler)
	r.Post("/items", okHandler)
	r.Put("/items/{id}", okHandler)
	r.Patch("/items/{id}", okHandler)
	r.Delete("/items/{id}", okHandler)

	tests := []struct{ method, path string }{
		{http.MethodGet, "/items"},
		{http.MethodPost, "/items"},
		{http.MethodPut, "/items/1"},
		{http.MethodPatch, "/items/1"},
		{http.MethodDelete, "/items/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, do(t, r, tt.method, tt.path).Code)
		})
	}
}

func TestRouter_MethodNotAllowedAndNotFound(t *testing.T) {
	r := routing.New(zerolog.Nop())
	r.Get("/only-get", okHandler)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, r, http.MethodPost, "/only-get").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/missing").Code)
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	r := routing.New(zerolog.Nop())
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/cleanup", okHandler)
	})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/v1/cleanup").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/cleanup").Code)
}

func TestRouter_GroupMiddlewareIsScoped(t *testing.T) {
	r := routing.New(zerolog.Nop())
	r.Group(func(g *routing.Router) {
		g.Middleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Group", "yes")
				next.ServeHTTP(w, req)
			})
		})
		g.Get("/inside", okHandler)
	})
	r.Get("/outside", okHandler)

	assert.Equal(t, "yes", do(t, r, http.MethodGet, "/inside").Header().Get("X-Group"))
	assert.Empty(t, do(t, r, http.MethodGet, "/outside").Header().Get("X-Group"))
}

// ── Params ───────────────────────────────────────────────────────────────────

func TestParam(t *testing.T) {
	r := routing.New(zerolog.Nop())
	var got string
	r.Get("/settings/{key}", func(w http.ResponseWriter, req *http.Request) {
		got = routing.Param(req, "key")
	})

	do(t, r, http.MethodGet, "/settings/site_name")
	assert.Equal(t, "site_name", got)
}

// ── Introspection & middleware ──────────────────────────────────────────────

func TestRouter_Routes(t *testing.T) {
	r := routing.New(zerolog.Nop())
	r.Prefix("/api", func(api *routing.Router) {
		api.Get("/a", okHandler)
		api.Post("/b", okHandler)
	})

	assert.Equal(t, []string{"GET /api/a", "POST /api/b"}, r.Routes())
}

func TestRouter_RecoversPanics(t *testing.T) {
	r := routing.New(zerolog.Nop())
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, do(t, r, http.MethodGet, "/boom").Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := routing.New(zerolog.New(&buf))
	r.Get("/ok", okHandler)

	do(t, r, http.MethodGet, "/ok")
	do(t, r, http.MethodGet, "/missing")

	out := buf.String()
	assert.Contains(t, out, `"path":"/ok"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status":404`)
}
