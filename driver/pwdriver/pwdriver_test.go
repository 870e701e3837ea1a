package pwdriver_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/login-smoke/driver/pwdriver"
	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/scenario"
	"github.com/jackc/login-smoke/test/testutil"
	"github.com/stretchr/testify/require"
)

func newPage(t *testing.T, timeout time.Duration) *pwdriver.Page {
	t.Helper()

	browser, err := pwdriver.Launch(pwdriver.LaunchConfig{
		Bin:      os.Getenv("BROWSER_BIN"),
		Headless: true,
		Timeout:  timeout,
	})
	if err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	t.Cleanup(func() { browser.Close() })

	page, err := browser.NewPage(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })

	return page
}

func TestLoginShowsWelcome(t *testing.T) {
	page := newPage(t, 0)
	require.Equal(t, pwdriver.DefaultTimeout, page.Timeout())

	err := scenario.Run(context.Background(), page, testutil.FixtureBaseURL(t), scenario.Login())
	require.NoError(t, err, page.Describe())
}

func TestLoginSuite(t *testing.T) {
	page := newPage(t, time.Second)
	base := testutil.FixtureBaseURL(t)

	for _, s := range scenario.LoginSuite() {
		err := scenario.Run(context.Background(), page, base, s)
		require.NoError(t, err, s.Name)
	}
}

func TestExpectTextHiddenAfterLogin(t *testing.T) {
	page := newPage(t, time.Second)

	err := scenario.Run(context.Background(), page, testutil.FixtureBaseURL(t), scenario.Login())
	require.NoError(t, err)

	err = page.ExpectTextHidden(context.Background(), scenario.LoginWelcomeText)
	require.ErrorIs(t, err, pwdriver.ErrUnexpectedlyVisible)
}

func TestStepTimeoutHonoursContextDeadline(t *testing.T) {
	page := newPage(t, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := scenario.Run(ctx, page, testutil.FixtureBaseURL(t), &scenario.Scenario{
		Name: "missing field",
		Steps: []scenario.Step{
			{Action: scenario.ActionNavigate, Target: "demo.html"},
			{Action: scenario.ActionFill, Target: "Username", Value: "user"},
		},
	})
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestExpectTextHiddenFailsWhenContextEndsFirst(t *testing.T) {
	page := newPage(t, 5*time.Second)

	err := page.Navigate(context.Background(), testutil.FixtureURL(t, fixture.Demo))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		err = page.ExpectTextHidden(ctx, scenario.LoginWelcomeText)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
}

func TestExpectTextHiddenPassesWithinStepTimeout(t *testing.T) {
	page := newPage(t, 300*time.Millisecond)

	err := page.Navigate(context.Background(), testutil.FixtureURL(t, fixture.Demo))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, page.ExpectTextHidden(ctx, scenario.LoginWelcomeText))
}
