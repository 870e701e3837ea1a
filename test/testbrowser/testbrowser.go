// Package testbrowser shares one browser between the tests of a package.
//
// Each test that calls Manager.Acquire gets a page in its own incognito context, so tests never observe each other's
// cookies or storage. Acquire also limits how many tests drive the browser at once.
package testbrowser

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/login-smoke/driver/roddriver"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
)

type ManagerConfig struct {
	// MaxConcurrent is the number of tests that may hold a page at once. If zero, 1 is used.
	MaxConcurrent int64

	Launch roddriver.LaunchConfig
}

type Manager struct {
	config ManagerConfig
	sem    *semaphore.Weighted

	launchOnce sync.Once
	browser    *roddriver.Browser
	launchErr  error
}

// NewManager returns a Manager. The browser is not launched until the first call to Acquire.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.MaxConcurrent == 0 {
		config.MaxConcurrent = 1
	}
	if config.MaxConcurrent < 0 {
		return nil, fmt.Errorf("MaxConcurrent must be greater than 0, got %d", config.MaxConcurrent)
	}

	return &Manager{
		config: config,
		sem:    semaphore.NewWeighted(config.MaxConcurrent),
	}, nil
}

func (m *Manager) launch() (*roddriver.Browser, error) {
	m.launchOnce.Do(func() {
		m.browser, m.launchErr = roddriver.Launch(m.config.Launch)
	})
	return m.browser, m.launchErr
}

// Acquire blocks until a browser slot is free and returns a fresh page. The slot and page are released when t
// finishes. If no browser can be launched the test is skipped.
func (m *Manager) Acquire(t testing.TB) *Handle {
	t.Helper()

	browser, err := m.launch()
	if err != nil {
		t.Skipf("browser unavailable: %v", err)
	}

	ctx := context.Background()
	err = m.sem.Acquire(ctx, 1)
	require.NoError(t, err)
	t.Cleanup(func() { m.sem.Release(1) })

	page, err := browser.NewPage(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		err := page.Close()
		if err != nil {
			t.Logf("close page: %v", err)
		}
	})

	return &Handle{t: t, page: page}
}

// Close closes the browser if it was launched.
func (m *Manager) Close() error {
	if m.browser == nil {
		return nil
	}
	return m.browser.Close()
}

// Handle is a test's claim on the shared browser.
type Handle struct {
	t    testing.TB
	page *roddriver.Page
}

// Driver returns the underlying page for running scenarios.
func (h *Handle) Driver() *roddriver.Page {
	return h.page
}

// Page returns a page whose helpers fail the test instead of returning errors.
func (h *Handle) Page() *Page {
	return &Page{t: h.t, page: h.page}
}

// Page wraps a roddriver.Page with helpers that call t.Fatal on failure.
type Page struct {
	t    testing.TB
	page *roddriver.Page
}

func (p *Page) fail(err error) {
	p.t.Helper()
	p.t.Fatalf("%v\n%s", err, p.page.Describe())
}

func (p *Page) MustNavigate(url string) *Page {
	p.t.Helper()
	err := p.page.Navigate(context.Background(), url)
	if err != nil {
		p.fail(err)
	}
	return p
}

// FillIn fills the field labelled label with value.
func (p *Page) FillIn(label, value string) {
	p.t.Helper()
	err := p.page.FillByLabel(context.Background(), label, value)
	if err != nil {
		p.fail(err)
	}
}

// ClickOn clicks the button named name.
func (p *Page) ClickOn(name string) {
	p.t.Helper()
	err := p.page.ClickByRole(context.Background(), "button", name)
	if err != nil {
		p.fail(err)
	}
}

// HasContent waits for text to be visible.
func (p *Page) HasContent(text string) {
	p.t.Helper()
	err := p.page.ExpectTextVisible(context.Background(), text)
	if err != nil {
		p.fail(err)
	}
}

// LacksContent checks that text stays hidden for the page's whole step timeout.
func (p *Page) LacksContent(text string) {
	p.t.Helper()
	err := p.page.ExpectTextHidden(context.Background(), text)
	if err != nil {
		p.fail(err)
	}
}
