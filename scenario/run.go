package scenario

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Driver performs browser actions on a single page. Every method blocks until the browser has finished the action or
// the driver's timeout or ctx expires.
type Driver interface {
	// Navigate loads url and waits for the page to finish loading.
	Navigate(ctx context.Context, url string) error

	// FillByLabel replaces the value of the form control whose accessible label is label.
	FillByLabel(ctx context.Context, label, value string) error

	// ClickByRole clicks the element with the given ARIA role and accessible name.
	ClickByRole(ctx context.Context, role, name string) error

	// ExpectTextVisible waits until text is rendered and visible.
	ExpectTextVisible(ctx context.Context, text string) error

	// ExpectTextHidden fails if text becomes visible at any point during the driver's timeout window.
	ExpectTextHidden(ctx context.Context, text string) error
}

// StepError reports the step of a scenario that failed.
type StepError struct {
	Scenario string
	Index    int // zero based
	Step     Step
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %d (%s): %v", e.Scenario, e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result is the outcome of running one scenario.
type Result struct {
	Scenario string
	Duration time.Duration
	Err      error
}

func (r Result) Passed() bool {
	return r.Err == nil
}

// Run runs the steps of s in order against d. A step is not started until the previous one has returned. Navigate
// targets are resolved against base. Run stops at the first failure and returns it as a *StepError.
func Run(ctx context.Context, d Driver, base *url.URL, s *Scenario) error {
	logger := zerolog.Ctx(ctx).With().Str("scenario", s.Name).Logger()

	for i, step := range s.Steps {
		err := ctx.Err()
		if err != nil {
			return &StepError{Scenario: s.Name, Index: i, Step: step, Err: err}
		}

		start := time.Now()
		err = runStep(ctx, d, base, step)
		logger.Debug().
			Int("step", i+1).
			Str("action", string(step.Action)).
			Str("target", step.Target).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("scenario step")
		if err != nil {
			return &StepError{Scenario: s.Name, Index: i, Step: step, Err: err}
		}
	}

	return nil
}

// RunTimed runs s and reports the outcome as a Result.
func RunTimed(ctx context.Context, d Driver, base *url.URL, s *Scenario) Result {
	start := time.Now()
	err := Run(ctx, d, base, s)
	return Result{Scenario: s.Name, Duration: time.Since(start), Err: err}
}

func runStep(ctx context.Context, d Driver, base *url.URL, step Step) error {
	switch step.Action {
	case ActionNavigate:
		target, err := Resolve(base, step.Target)
		if err != nil {
			return err
		}
		return d.Navigate(ctx, target)
	case ActionFill:
		return d.FillByLabel(ctx, step.Target, step.Value)
	case ActionClick:
		return d.ClickByRole(ctx, step.role(), step.Target)
	case ActionExpectVisible:
		return d.ExpectTextVisible(ctx, step.Target)
	case ActionExpectHidden:
		return d.ExpectTextHidden(ctx, step.Target)
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, step.Action)
	}
}

// Resolve resolves a navigate target against base. Absolute targets are returned unchanged. A nil base requires an
// absolute target.
func Resolve(base *url.URL, target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse navigate target: %w", err)
	}

	if ref.IsAbs() {
		return ref.String(), nil
	}

	if base == nil {
		return "", fmt.Errorf("relative navigate target %q without a base URL", target)
	}

	return base.ResolveReference(ref).String(), nil
}
