// Package httpz provides the HTTP handler that serves fixture pages.
//
// It is named httpz to avoid a name conflict with the standard library's http package.
package httpz

import (
	"context"
	"io/fs"
	"net/http"
)

// Use when setting something though the request context.
type ctxRequestKey int

const (
	_ ctxRequestKey = iota
	ctxKeyEnvironment
)

type environment struct {
	fixtures fs.FS
}

// setContextValue returns a middleware handler that sets a value in the request context.
func setContextValue(key any, value any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = context.WithValue(ctx, key, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}
