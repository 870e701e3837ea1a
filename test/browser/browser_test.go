package browser_test

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/httpz"
	"github.com/jackc/login-smoke/test/testbrowser"
	"github.com/jackc/login-smoke/test/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var TestBrowserManager *testbrowser.Manager

func TestMain(m *testing.M) {
	TestBrowserManager = testutil.InitTestBrowserManager(m)

	code := m.Run()
	TestBrowserManager.Close()
	os.Exit(code)
}

type serverInstanceT struct {
	Server *httptest.Server
}

// startServer serves the embedded fixtures over HTTP for tests that do not use file:// URLs.
func startServer(t *testing.T) *serverInstanceT {
	logWriter := zerolog.ConsoleWriter{Out: os.Stdout}
	logger := zerolog.New(logWriter).With().Timestamp().Logger()

	handler, err := httpz.NewHandler(fixture.FS, &logger)
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
	})

	return &serverInstanceT{Server: server}
}
