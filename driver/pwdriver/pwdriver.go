// Package pwdriver runs scenario steps through playwright-go.
//
// Playwright needs its driver and browsers installed (see devtools/install_browsers). Unlike go-rod it does not take a
// context.Context, so each step derives its Playwright timeout from the earlier of the step timeout and the context
// deadline.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

// DefaultTimeout is Playwright's own default expect timeout.
const DefaultTimeout = 5 * time.Second

const pollInterval = 50 * time.Millisecond

// ErrUnexpectedlyVisible is returned by ExpectTextHidden when the text becomes visible.
var ErrUnexpectedlyVisible = errors.New("text is visible")

type LaunchConfig struct {
	// Bin is the browser executable. If empty, the Chromium installed by Playwright is used.
	Bin string

	Headless bool

	// Timeout bounds each step. If zero, DefaultTimeout is used.
	Timeout time.Duration

	Logger *zerolog.Logger
}

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	timeout time.Duration
	logger  *zerolog.Logger
}

// Launch starts the Playwright driver and a Chromium instance.
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

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	options := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(config.Headless),
	}
	if config.Bin != "" {
		options.ExecutablePath = playwright.String(config.Bin)
	}

	browser, err := pw.Chromium.Launch(options)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	logger.Debug().Str("version", browser.Version()).Bool("headless", config.Headless).Msg("Browser launched")

	return &Browser{
		pw:      pw,
		browser: browser,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// NewPage opens a page in a fresh browser context.
func (b *Browser) NewPage(ctx context.Context) (*Page, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	bctx, err := b.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	timeoutMS := float64(b.timeout.Milliseconds())
	bctx.SetDefaultTimeout(timeoutMS)
	bctx.SetDefaultNavigationTimeout(timeoutMS)

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &Page{page: page, bctx: bctx, timeout: b.timeout}, nil
}

func (b *Browser) Close() error {
	err := b.browser.Close()
	stopErr := b.pw.Stop()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	if stopErr != nil {
		return fmt.Errorf("stop playwright: %w", stopErr)
	}

	b.logger.Debug().Msg("Browser closed")
	return nil
}

// Page drives a single Playwright page. It implements scenario.Driver.
type Page struct {
	page    playwright.Page
	bctx    playwright.BrowserContext
	timeout time.Duration
}

func (p *Page) Timeout() time.Duration {
	return p.timeout
}

// stepTimeout returns the Playwright timeout in milliseconds for a step started now.
func (p *Page) stepTimeout(ctx context.Context) (float64, error) {
	err := ctx.Err()
	if err != nil {
		return 0, err
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			if remaining <= 0 {
				return 0, context.DeadlineExceeded
			}
			timeout = remaining
		}
	}

	return float64(timeout.Milliseconds()), nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	timeout, err := p.stepTimeout(ctx)
	if err != nil {
		return err
	}

	_, err = p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(timeout),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	return nil
}

func (p *Page) FillByLabel(ctx context.Context, label, value string) error {
	timeout, err := p.stepTimeout(ctx)
	if err != nil {
		return err
	}

	err = p.page.GetByLabel(label).Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(timeout),
	})
	if err != nil {
		return fmt.Errorf("fill field labelled %q: %w", label, err)
	}

	return nil
}

func (p *Page) ClickByRole(ctx context.Context, role, name string) error {
	timeout, err := p.stepTimeout(ctx)
	if err != nil {
		return err
	}

	locator := p.page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{Name: name})
	err = locator.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(timeout),
	})
	if err != nil {
		return fmt.Errorf("click %s %q: %w", role, name, err)
	}

	return nil
}

func (p *Page) ExpectTextVisible(ctx context.Context, text string) error {
	timeout, err := p.stepTimeout(ctx)
	if err != nil {
		return err
	}

	err = playwright.NewPlaywrightAssertions(timeout).Locator(p.page.GetByText(text).First()).ToBeVisible()
	if err != nil {
		return fmt.Errorf("expect %q to be visible: %w", text, err)
	}

	return nil
}

func (p *Page) ExpectTextHidden(ctx context.Context, text string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	// When ctx ends before the step timeout the window is cut short, which is a failure rather than a pass.
	deadline := time.Now().Add(p.timeout)
	ctxBound := false
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
		ctxBound = true
	}

	locator := p.page.GetByText(text)
	for {
		visible, err := locator.First().IsVisible()
		if err != nil {
			return fmt.Errorf("expect %q to stay hidden: %w", text, err)
		}
		if visible {
			return fmt.Errorf("expect %q to stay hidden: %w", text, ErrUnexpectedlyVisible)
		}

		if !time.Now().Before(deadline) {
			if ctxBound {
				return fmt.Errorf("expect %q to stay hidden: %w", text, context.DeadlineExceeded)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("expect %q to stay hidden: %w", text, ctx.Err())
		case <-time.After(min(pollInterval, time.Until(deadline))):
		}
	}
}

// Describe returns the current URL and title of the page for failure messages.
func (p *Page) Describe() string {
	title, err := p.page.Title()
	if err != nil {
		return fmt.Sprintf("url=%s (title unavailable: %v)", p.page.URL(), err)
	}
	return fmt.Sprintf("url=%s title=%q", p.page.URL(), title)
}

func (p *Page) HTML() (string, error) {
	return p.page.Content()
}

func (p *Page) Close() error {
	err := p.page.Close()
	if err != nil {
		_ = p.bctx.Close()
		return fmt.Errorf("close page: %w", err)
	}

	err = p.bctx.Close()
	if err != nil {
		return fmt.Errorf("close browser context: %w", err)
	}

	return nil
}
