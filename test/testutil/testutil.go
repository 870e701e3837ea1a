package testutil

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"testing"

	"github.com/jackc/login-smoke/driver/roddriver"
	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/test/testbrowser"
	"github.com/stretchr/testify/require"
)

// InitTestBrowserManager performs the standard initialization of a *testbrowser.Manager from the environment. It
// requires a *testing.M to ensure it is only called by TestMain. If the configuration is invalid it calls os.Exit(1).
//
//	MAX_CONCURRENT_BROWSER_TESTS  tests allowed to drive the browser at once (default 1)
//	BROWSER_BIN                   browser executable (default: found or downloaded by rod)
//	BROWSER_HEADLESS              set to false to watch the tests run (default true)
//	BROWSER_NO_SANDBOX            set to true when running as root in a container
func InitTestBrowserManager(*testing.M) *testbrowser.Manager {
	maxConcurrent := int64(1)
	if s := os.Getenv("MAX_CONCURRENT_BROWSER_TESTS"); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil || n < 1 {
			fmt.Println("MAX_CONCURRENT_BROWSER_TESTS must be greater than 0")
			os.Exit(1)
		}
		maxConcurrent = n
	}

	headless := true
	if s := os.Getenv("BROWSER_HEADLESS"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			fmt.Println("failed to init testbrowser.Manager: parse BROWSER_HEADLESS:", err)
			os.Exit(1)
		}
		headless = b
	}

	noSandbox := os.Geteuid() == 0
	if s := os.Getenv("BROWSER_NO_SANDBOX"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			fmt.Println("failed to init testbrowser.Manager: parse BROWSER_NO_SANDBOX:", err)
			os.Exit(1)
		}
		noSandbox = b
	}

	manager, err := testbrowser.NewManager(testbrowser.ManagerConfig{
		MaxConcurrent: maxConcurrent,
		Launch: roddriver.LaunchConfig{
			Bin:       os.Getenv("BROWSER_BIN"),
			Headless:  headless,
			NoSandbox: noSandbox,
		},
	})
	if err != nil {
		fmt.Println("failed to init testbrowser.Manager:", err)
		os.Exit(1)
	}

	return manager
}

// FixtureURL returns the file:// URL of the named fixture in the source tree.
func FixtureURL(t testing.TB, name string) string {
	t.Helper()
	u, err := fixture.FileURL(fixture.Path(name))
	require.NoError(t, err)
	return u
}

// FixtureBaseURL returns the file:// URL of the fixture directory in the source tree.
func FixtureBaseURL(t testing.TB) *url.URL {
	t.Helper()
	u, err := fixture.DirURL(fixture.Dir())
	require.NoError(t, err)
	return u
}
