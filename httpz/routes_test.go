package httpz_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/httpz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	handler, err := httpz.NewHandler(fixture.FS, &logger)
	require.NoError(t, err)
	return handler
}

func get(t *testing.T, handler http.Handler, target string, header http.Header) *http.Response {
	t.Helper()
	return request(t, handler, http.MethodGet, target, header)
}

func request(t *testing.T, handler http.Handler, method, target string, header http.Header) *http.Response {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		r.Header[k] = v
	}
	responseRecorder := httptest.NewRecorder()
	handler.ServeHTTP(responseRecorder, r)
	return responseRecorder.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHealthz(t *testing.T) {
	resp := get(t, newHandler(t), "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", readBody(t, resp))
}

func TestIndexListsFixtures(t *testing.T) {
	resp := get(t, newHandler(t), "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Contains(t, readBody(t, resp), `<a href="/fixtures/demo.html">demo.html</a>`)
}

func TestServeFixture(t *testing.T) {
	want, err := fixture.Read(fixture.Demo)
	require.NoError(t, err)

	resp := get(t, newHandler(t), "/fixtures/demo.html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Regexp(t, `^W/"[A-Za-z0-9_=-]+"$`, resp.Header.Get("ETag"))
	require.Equal(t, string(want), readBody(t, resp))
}

func TestServeFixtureNotModified(t *testing.T) {
	handler := newHandler(t)

	resp := get(t, handler, "/fixtures/demo.html", nil)
	etag := resp.Header.Get("ETag")
	readBody(t, resp)
	require.NotEmpty(t, etag)

	resp = get(t, handler, "/fixtures/demo.html", http.Header{"If-None-Match": []string{etag}})
	require.Equal(t, http.StatusNotModified, resp.StatusCode)
	require.Empty(t, readBody(t, resp))
}

func TestServeFixtureIfNoneMatchList(t *testing.T) {
	handler := newHandler(t)

	resp := get(t, handler, "/fixtures/demo.html", nil)
	etag := resp.Header.Get("ETag")
	readBody(t, resp)
	require.NotEmpty(t, etag)

	for _, tc := range []struct {
		testName    string
		ifNoneMatch string
		status      int
	}{
		{testName: "list containing etag", ifNoneMatch: `W/"other", ` + etag, status: http.StatusNotModified},
		{testName: "wildcard", ifNoneMatch: "*", status: http.StatusNotModified},
		{testName: "strong form of weak etag", ifNoneMatch: strings.TrimPrefix(etag, "W/"), status: http.StatusNotModified},
		{testName: "list without etag", ifNoneMatch: `W/"a", W/"b"`, status: http.StatusOK},
	} {
		t.Run(tc.testName, func(t *testing.T) {
			resp := get(t, handler, "/fixtures/demo.html", http.Header{"If-None-Match": []string{tc.ifNoneMatch}})
			require.Equal(t, tc.status, resp.StatusCode)
			readBody(t, resp)
		})
	}
}

func TestHeadRequests(t *testing.T) {
	handler := newHandler(t)

	resp := request(t, handler, http.MethodHead, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	readBody(t, resp)

	resp = request(t, handler, http.MethodHead, "/fixtures/demo.html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, resp.Header.Get("ETag"))
	require.Empty(t, readBody(t, resp))

	resp = request(t, handler, http.MethodHead, "/fixtures/missing.html", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	readBody(t, resp)
}

func TestServeFixtureNotFound(t *testing.T) {
	handler := newHandler(t)

	for _, target := range []string{"/fixtures/missing.html", "/fixtures/fixture.go", "/fixtures/..%2Ffixture.go"} {
		resp := get(t, handler, target, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, target)
		readBody(t, resp)
	}
}

func TestServeOtherFS(t *testing.T) {
	fsys := fstest.MapFS{
		"a.html": &fstest.MapFile{Data: []byte("<p>a</p>")},
		"b.txt":  &fstest.MapFile{Data: []byte("b")},
	}
	logger := zerolog.Nop()
	handler, err := httpz.NewHandler(fsys, &logger)
	require.NoError(t, err)

	resp := get(t, handler, "/", nil)
	body := readBody(t, resp)
	require.Contains(t, body, "a.html")
	require.NotContains(t, body, "b.txt")

	resp = get(t, handler, "/fixtures/a.html", nil)
	require.Equal(t, "<p>a</p>", readBody(t, resp))

	resp = get(t, handler, "/fixtures/b.txt", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	readBody(t, resp)
}
