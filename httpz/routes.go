package httpz

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/view"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// NewHandler returns an http.Handler that serves the fixtures at the root of fixtures. Pass fixture.FS to serve the
// embedded fixtures.
func NewHandler(
	fixtures fs.FS,
	logger *zerolog.Logger,
) (http.Handler, error) {

	router := chi.NewRouter()

	env := &environment{
		fixtures: fixtures,
	}

	router.Use(middleware.Compress(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)

	router.Use(hlog.NewHandler(*logger))
	router.Use(hlog.RequestIDHandler("request_id", "x-request-id"))
	router.Use(hlog.MethodHandler("method"))
	router.Use(hlog.URLHandler("url"))
	router.Use(hlog.RemoteAddrHandler("remote_ip"))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))

	router.Use(middleware.Recoverer)
	router.Use(middleware.GetHead)

	router.Use(setContextValue(ctxKeyEnvironment, env))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	router.Method(http.MethodGet, "/", bufferedHandler(func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()
		env := ctx.Value(ctxKeyEnvironment).(*environment)
		names, err := fixture.NamesFS(env.fixtures)
		if err != nil {
			return err
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		return view.Index(names).Render(ctx, w)
	}))

	router.Method(http.MethodGet, "/fixtures/{name}", bufferedHandler(func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()
		env := ctx.Value(ctxKeyEnvironment).(*environment)
		buf, err := fixture.ReadFS(env.fixtures, chi.URLParam(r, "name"))
		if err != nil {
			return err
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, err = w.Write(buf)
		return err
	}))

	return router, nil
}
