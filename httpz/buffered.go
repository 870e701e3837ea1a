package httpz

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/jackc/login-smoke/fixture"
	"github.com/rs/zerolog/hlog"
)

var bufPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

type bufferedResponseWriter struct {
	w          http.ResponseWriter
	b          *bytes.Buffer
	statusCode int
}

func (brw *bufferedResponseWriter) Header() http.Header {
	return brw.w.Header()
}

func (brw *bufferedResponseWriter) Write(p []byte) (int, error) {
	return brw.b.Write(p)
}

func (brw *bufferedResponseWriter) WriteHeader(statusCode int) {
	brw.statusCode = statusCode
}

// bufferedHandler returns a handler that buffers the response written by fn. If fn returns an error the buffered
// response is discarded and the error is turned into a status code. Successful GET responses get a weak ETag computed
// from the body and a matching If-None-Match is answered with 304 Not Modified. HEAD requests get the headers only.
func bufferedHandler(fn func(w http.ResponseWriter, r *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := bufPool.Get().(*bytes.Buffer)
		defer func() {
			b.Reset()
			bufPool.Put(b)
		}()

		brw := &bufferedResponseWriter{
			w: w,
			b: b,
		}

		err := fn(brw, r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		// Set Content-Type here so it is available to middleware such as chi/middleware/Compress.
		if brw.Header().Get("Content-Type") == "" {
			brw.Header().Set("Content-Type", http.DetectContentType(brw.b.Bytes()))
		}

		if (r.Method == http.MethodGet || r.Method == http.MethodHead) && (brw.statusCode == 0 || brw.statusCode == http.StatusOK) {
			digest := sha256.Sum256(brw.b.Bytes())
			etag := `W/"` + base64.URLEncoding.EncodeToString(digest[:]) + `"`
			brw.w.Header().Set("ETag", etag)

			if etagMatches(r.Header.Get("If-None-Match"), etag) {
				brw.w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		if brw.statusCode != 0 {
			brw.w.WriteHeader(brw.statusCode)
		}
		if r.Method == http.MethodHead {
			return
		}
		brw.b.WriteTo(brw.w)
	})
}

// etagMatches reports whether the If-None-Match header value matches etag using weak comparison.
func etagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}

	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}

	return false
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fixture.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
