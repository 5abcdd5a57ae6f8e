// Package middleware holds HTTP middleware specific to the housekeeper API.
package middleware

import (
	"crypto/subtle"
	"net/http"

	gohttp "github.com/km-arc/go-housekeeper/framework/http"
)

// RequireKey rejects requests whose bearer token is not key. An empty key
// disables the check.
//
//	api.Middleware(middleware.RequireKey(cfg.App.Key))
func RequireKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := gohttp.NewRequest(r).BearerToken()
			if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				gohttp.NewResponse(w).Unauthorized()
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
