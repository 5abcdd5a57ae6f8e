package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ErrEmptyBody is returned by Bind for a JSON request without a body.
var ErrEmptyBody = errors.New("empty request body")

const maxBodyBytes = 1 << 20

// Request wraps *http.Request with input helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Context returns the request context.
func (req *Request) Context() context.Context { return req.raw.Context() }

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the request body into v. JSON bodies map via `json` tags;
// url-encoded forms are mapped through the same tags.
func (req *Request) Bind(v any) error {
	if strings.Contains(req.ContentType(), "application/json") {
		return req.bindJSON(v)
	}
	if err := req.raw.ParseForm(); err != nil {
		return err
	}
	return bindForm(req.raw.PostForm, v)
}

// BindAndValidate binds the body into v and validates it. Validation
// failures are returned as *ValidationErrors.
//
//	var in updateSettingInput
//	if err := req.BindAndValidate(&in); err != nil {
//	    res.Fail(err)
//	    return
//	}
func (req *Request) BindAndValidate(v any) error {
	if err := req.Bind(v); err != nil {
		return err
	}
	return Validate(v)
}

func (req *Request) bindJSON(v any) error {
	defer req.raw.Body.Close()
	body, err := io.ReadAll(io.LimitReader(req.raw.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(body, v)
}

func bindForm(values map[string][]string, v any) error {
	m := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			m[k] = vals[0]
		} else {
			m[k] = vals
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	return orFallback(req.raw.URL.Query().Get(key), fallback)
}

// QueryInt returns a query-string value as an int, or fallback when it is
// missing or malformed.
func (req *Request) QueryInt(key string, fallback int) int {
	n, err := strconv.Atoi(req.raw.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return n
}

// QueryBool returns a query-string value as a bool, or fallback.
func (req *Request) QueryBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(req.raw.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return b
}

// RouteParam returns a chi URL parameter.
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	auth := req.Header("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}

func (req *Request) Method() string { return req.raw.Method }
func (req *Request) Path() string   { return req.raw.URL.Path }

func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}

func orFallback(v string, fallback []string) string {
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}
