// Package scenario describes browser journeys as ordered steps and runs them against a Driver.
//
// A journey is data rather than code so the same login check can be expressed once and run by any driver, from go
// test or from the smoke command.
package scenario

import (
	"errors"
	"fmt"

	"github.com/jackc/login-smoke/fixture"
)

type Action string

const (
	ActionNavigate      Action = "navigate"
	ActionFill          Action = "fill"
	ActionClick         Action = "click"
	ActionExpectVisible Action = "expect_visible"
	ActionExpectHidden  Action = "expect_hidden"
)

// DefaultClickRole is the role used by click steps that do not name one.
const DefaultClickRole = "button"

var ErrUnknownAction = errors.New("unknown action")
var ErrInvalidScenario = errors.New("invalid scenario")

// Step is one action in a journey.
//
// Target means different things per action: the fixture path for navigate, the accessible label for fill, the
// accessible name for click, and the text for the expect actions.
type Step struct {
	Action Action `yaml:"action"`
	Target string `yaml:"target"`
	Role   string `yaml:"role,omitempty"`
	Value  string `yaml:"value,omitempty"`
}

func (s Step) String() string {
	switch s.Action {
	case ActionFill:
		return fmt.Sprintf("fill %q with %q", s.Target, s.Value)
	case ActionClick:
		return fmt.Sprintf("click %s %q", s.role(), s.Target)
	default:
		return fmt.Sprintf("%s %q", s.Action, s.Target)
	}
}

func (s Step) role() string {
	if s.Role == "" {
		return DefaultClickRole
	}
	return s.Role
}

type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Suite is an ordered list of scenarios. Each scenario is expected to run on a fresh page.
type Suite []*Scenario

// Validate checks that s can be run. A scenario must have a name, must start by navigating somewhere, and every step
// must have a known action and a target.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidScenario)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: %s: no steps", ErrInvalidScenario, s.Name)
	}

	if s.Steps[0].Action != ActionNavigate {
		return fmt.Errorf("%w: %s: first step must be %s, got %s", ErrInvalidScenario, s.Name, ActionNavigate, s.Steps[0].Action)
	}

	for i, step := range s.Steps {
		switch step.Action {
		case ActionNavigate, ActionFill, ActionClick, ActionExpectVisible, ActionExpectHidden:
		default:
			return fmt.Errorf("%s: step %d: %w %q", s.Name, i+1, ErrUnknownAction, step.Action)
		}

		if step.Target == "" {
			return fmt.Errorf("%w: %s: step %d: %s has no target", ErrInvalidScenario, s.Name, i+1, step.Action)
		}

		if step.Action != ActionFill && step.Value != "" {
			return fmt.Errorf("%w: %s: step %d: value is only valid for %s", ErrInvalidScenario, s.Name, i+1, ActionFill)
		}

		if step.Action != ActionClick && step.Role != "" {
			return fmt.Errorf("%w: %s: step %d: role is only valid for %s", ErrInvalidScenario, s.Name, i+1, ActionClick)
		}
	}

	return nil
}

// Validate validates every scenario and rejects duplicate names.
func (s Suite) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, sc := range s {
		if sc == nil {
			return fmt.Errorf("%w: scenario %d is empty", ErrInvalidScenario, i+1)
		}

		err := sc.Validate()
		if err != nil {
			return err
		}

		if _, ok := seen[sc.Name]; ok {
			return fmt.Errorf("%w: duplicate scenario name %q", ErrInvalidScenario, sc.Name)
		}
		seen[sc.Name] = struct{}{}
	}

	return nil
}

// Login labels, button name, and welcome text rendered by the demo fixture.
const (
	LoginEmailLabel    = "Email"
	LoginPasswordLabel = "Mật khẩu"
	LoginButtonName    = "Đăng nhập"
	LoginWelcomeText   = "Chào mừng bạn trở lại!"
)

// LoginScenarioName is the name of the scenario returned by Login.
const LoginScenarioName = "login shows welcome"

// Login returns the local login journey: open the demo fixture, fill email and password, press the login button, and
// expect the welcome message.
func Login() *Scenario {
	return LoginWith("user@example.com", "123456")
}

// LoginWith is Login with the given credentials.
func LoginWith(email, password string) *Scenario {
	return &Scenario{
		Name: LoginScenarioName,
		Steps: []Step{
			{Action: ActionNavigate, Target: fixture.Demo},
			{Action: ActionFill, Target: LoginEmailLabel, Value: email},
			{Action: ActionFill, Target: LoginPasswordLabel, Value: password},
			{Action: ActionClick, Target: LoginButtonName},
			{Action: ActionExpectVisible, Target: LoginWelcomeText},
		},
	}
}
