package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context these steps need.
type TestContext interface {
	Do(method, path, user string, body any) error
	LastStatus() int
	LastBody() []byte
}

// RegisterSteps registers steps for the limit on the auth endpoints.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I send (\d+) failed logins for "([^"]*)"$`, steps.failLogins)
	ctx.Step(`^some login attempt should have been limited$`, steps.someAttemptLimited)
}

type ratelimitSteps struct {
	tc      TestContext
	limited bool
}

// failLogins stops at the first 429 so the response stays inspectable.
func (s *ratelimitSteps) failLogins(ctx context.Context, n int, login string) error {
	s.limited = false
	for range n {
		if err := s.tc.Do("POST", "/auth/login", "", map[string]any{
			"login":  login,
			"secret": "wrong-secret",
		}); err != nil {
			return err
		}
		switch s.tc.LastStatus() {
		case 429:
			s.limited = true
			return nil
		case 401:
		default:
			return fmt.Errorf("unexpected status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
		}
	}
	return nil
}

func (s *ratelimitSteps) someAttemptLimited(ctx context.Context) error {
	if !s.limited {
		return fmt.Errorf("no attempt was rate limited")
	}
	return nil
}
