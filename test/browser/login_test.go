package browser_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/scenario"
	"github.com/jackc/login-smoke/test/testutil"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLoginShowsWelcome(t *testing.T) {
	t.Parallel()

	driver := TestBrowserManager.Acquire(t).Driver()

	err := scenario.Run(context.Background(), driver, testutil.FixtureBaseURL(t), scenario.Login())
	require.NoError(t, err, driver.Describe())
}

func TestLoginShowsWelcomeStepByStep(t *testing.T) {
	t.Parallel()

	page := TestBrowserManager.Acquire(t).Page()

	page.MustNavigate(testutil.FixtureURL(t, fixture.Demo))

	page.FillIn("Email", "user@example.com")
	page.FillIn("Mật khẩu", "123456")
	page.ClickOn("Đăng nhập")

	page.HasContent("Chào mừng bạn trở lại!")
}

func TestLoginWithoutEmailKeepsWelcomeHidden(t *testing.T) {
	t.Parallel()

	page := TestBrowserManager.Acquire(t).Page()

	page.MustNavigate(testutil.FixtureURL(t, fixture.Demo))

	page.FillIn("Mật khẩu", "123456")
	page.ClickOn("Đăng nhập")

	page.LacksContent("Chào mừng bạn trở lại!")
}

func TestLoginWithoutPasswordKeepsWelcomeHidden(t *testing.T) {
	t.Parallel()

	page := TestBrowserManager.Acquire(t).Page()

	page.MustNavigate(testutil.FixtureURL(t, fixture.Demo))

	page.FillIn("Email", "user@example.com")
	page.ClickOn("Đăng nhập")

	page.LacksContent("Chào mừng bạn trở lại!")
}

func TestWelcomeHiddenBeforeLogin(t *testing.T) {
	t.Parallel()

	page := TestBrowserManager.Acquire(t).Page()

	page.MustNavigate(testutil.FixtureURL(t, fixture.Demo))

	page.LacksContent("Chào mừng bạn trở lại!")
}

func TestLoginIsRepeatable(t *testing.T) {
	t.Parallel()

	driver := TestBrowserManager.Acquire(t).Driver()
	base := testutil.FixtureBaseURL(t)

	for i := 0; i < 3; i++ {
		err := scenario.Run(context.Background(), driver, base, scenario.Login())
		require.NoErrorf(t, err, "run %d: %s", i+1, driver.Describe())
	}
}

func TestLoginSuite(t *testing.T) {
	t.Parallel()

	driver := TestBrowserManager.Acquire(t).Driver()
	base := testutil.FixtureBaseURL(t)

	for _, s := range scenario.LoginSuite() {
		result := scenario.RunTimed(context.Background(), driver, base, s)
		require.Truef(t, result.Passed(), "%s: %v", s.Name, result.Err)
	}
}

func TestLoginOverHTTP(t *testing.T) {
	t.Parallel()

	serverInstance := startServer(t)
	driver := TestBrowserManager.Acquire(t).Driver()

	base, err := url.Parse(fmt.Sprintf("%s/fixtures/", serverInstance.Server.URL))
	require.NoError(t, err)

	err = scenario.Run(context.Background(), driver, base, scenario.Login())
	require.NoError(t, err, driver.Describe())
}

func TestLoginMissingFixtureFails(t *testing.T) {
	t.Parallel()

	serverInstance := startServer(t)
	driver := TestBrowserManager.Acquire(t).Driver()

	base, err := url.Parse(fmt.Sprintf("%s/fixtures/", serverInstance.Server.URL))
	require.NoError(t, err)

	s := scenario.Login()
	s.Steps[0].Target = "missing.html"

	err = scenario.Run(context.Background(), driver, base, s)
	var stepErr *scenario.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, scenario.ActionFill, stepErr.Step.Action)
}

func TestLoginAcceptsAnyValidCredentials(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property test in short mode")
	}
	t.Parallel()

	driver := TestBrowserManager.Acquire(t).Driver()
	base := testutil.FixtureBaseURL(t)

	rapid.Check(t, func(rt *rapid.T) {
		email := rapid.StringMatching(`[a-z0-9]{1,12}@[a-z]{1,12}\.[a-z]{2,4}`).Draw(rt, "email")
		password := rapid.StringMatching(`[!-~]{1,16}`).Draw(rt, "password")

		err := scenario.Run(context.Background(), driver, base, scenario.LoginWith(email, password))
		if err != nil {
			rt.Fatalf("%v\n%s", err, driver.Describe())
		}
	})
}
