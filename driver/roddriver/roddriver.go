// Package roddriver runs scenario steps in Chromium through go-rod.
package roddriver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every step when LaunchConfig.Timeout is zero. It matches Playwright's default expect timeout.
const DefaultTimeout = 5 * time.Second

const pollInterval = 50 * time.Millisecond

// ErrUnexpectedlyVisible is returned by ExpectTextHidden when the text becomes visible.
var ErrUnexpectedlyVisible = errors.New("text is visible")

type LaunchConfig struct {
	// Bin is the browser executable. If empty, rod looks for a local Chromium and downloads one if none is found.
	Bin string

	Headless  bool
	NoSandbox bool

	// Timeout bounds each step. If zero, DefaultTimeout is used.
	Timeout time.Duration

	Logger *zerolog.Logger
}

// Browser is a launched Chromium process. It is safe for concurrent use; each Page it creates is not.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
	logger   *zerolog.Logger
}

// Launch starts a browser process and connects to it.
func Launch(config LaunchConfig) (*Browser, error) {
	logger := config.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	l := launcher.New().Headless(config.Headless).NoSandbox(config.NoSandbox)
	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	err = browser.Connect()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	logger.Debug().Str("control_url", controlURL).Bool("headless", config.Headless).Msg("Browser launched")

	return &Browser{
		launcher: l,
		browser:  browser,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// NewPage opens a blank page in its own incognito context so no cookies or storage leak between pages.
func (b *Browser) NewPage(ctx context.Context) (*Page, error) {
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &Page{
		page:      page.Context(context.Background()),
		incognito: incognito,
		timeout:   b.timeout,
	}, nil
}

// Close closes the browser and removes its profile directory.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}

	b.logger.Debug().Msg("Browser closed")
	return nil
}

// Page drives a single browser tab. It implements scenario.Driver.
type Page struct {
	page      *rod.Page
	incognito *rod.Browser
	timeout   time.Duration
}

// Timeout returns the bound applied to each step.
func (p *Page) Timeout() time.Duration {
	return p.timeout
}

// step returns the page bound to ctx limited by the step timeout.
func (p *Page) step(ctx context.Context) (*rod.Page, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	return p.page.Context(ctx), cancel
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	pg, cancel := p.step(ctx)
	defer cancel()

	err := pg.Navigate(url)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	err = pg.WaitLoad()
	if err != nil {
		return fmt.Errorf("wait for %s to load: %w", url, err)
	}

	return nil
}

func (p *Page) FillByLabel(ctx context.Context, label, value string) error {
	pg, cancel := p.step(ctx)
	defer cancel()

	el, err := pg.ElementByJS(rod.Eval(findByLabelJS, label))
	if err != nil {
		return fmt.Errorf("find field labelled %q: %w", label, err)
	}

	_, err = el.Eval(clearJS)
	if err != nil {
		return fmt.Errorf("clear field labelled %q: %w", label, err)
	}

	if value != "" {
		err = el.Input(value)
		if err != nil {
			return fmt.Errorf("fill field labelled %q: %w", label, err)
		}
	}

	return nil
}

func (p *Page) ClickByRole(ctx context.Context, role, name string) error {
	pg, cancel := p.step(ctx)
	defer cancel()

	el, err := pg.ElementByJS(rod.Eval(findByRoleJS, role, name))
	if err != nil {
		return fmt.Errorf("find %s %q: %w", role, name, err)
	}

	err = el.Click(proto.InputMouseButtonLeft, 1)
	if err != nil {
		return fmt.Errorf("click %s %q: %w", role, name, err)
	}

	return nil
}

func (p *Page) ExpectTextVisible(ctx context.Context, text string) error {
	pg, cancel := p.step(ctx)
	defer cancel()

	err := waitVisible(pg, text)
	if err != nil {
		return fmt.Errorf("expect %q to be visible: %w", text, err)
	}

	return nil
}

func (p *Page) ExpectTextHidden(ctx context.Context, text string) error {
	pg, cancel := p.step(ctx)
	defer cancel()

	err := waitVisible(pg, text)
	switch {
	case err == nil:
		return fmt.Errorf("expect %q to stay hidden: %w", text, ErrUnexpectedlyVisible)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		// The window elapsed without the text appearing.
		return nil
	default:
		return fmt.Errorf("expect %q to stay hidden: %w", text, err)
	}
}

// waitVisible polls until text is visible or the page context ends.
func waitVisible(pg *rod.Page, text string) error {
	ctx := pg.GetContext()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		res, err := pg.Eval(textVisibleJS, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if res.Value.Bool() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Describe returns the current URL and title of the page for failure messages.
func (p *Page) Describe() string {
	info, err := p.page.Info()
	if err != nil {
		return fmt.Sprintf("(page info unavailable: %v)", err)
	}
	return fmt.Sprintf("url=%s title=%q", info.URL, info.Title)
}

// HTML returns the current document's outer HTML.
func (p *Page) HTML() (string, error) {
	return p.page.HTML()
}

// Close closes the page and discards its browser context.
func (p *Page) Close() error {
	err := p.page.Close()
	if err != nil {
		p.incognito.Close()
		return fmt.Errorf("close page: %w", err)
	}

	err = p.incognito.Close()
	if err != nil {
		return fmt.Errorf("close browser context: %w", err)
	}

	return nil
}
