package auth

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
	Field(name string) (any, error)
	SetToken(user, token string)
	NationalIDFor(user string) string
	LoginFor(user string) string
}

const secret = "enchente2024"

// RegisterSteps registers account and session steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^"([^"]*)" has registered$`, steps.hasRegistered)
	ctx.Step(`^"([^"]*)" is logged in$`, steps.isLoggedIn)
	ctx.Step(`^"([^"]*)" registers again with the same national id$`, steps.registerAgain)
	ctx.Step(`^"([^"]*)" logs in with a wrong secret$`, steps.loginWrongSecret)
	ctx.Step(`^"([^"]*)" logs out$`, steps.logout)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) register(user, login string) error {
	return s.tc.Do("POST", "/auth/register", "", map[string]any{
		"login":       login,
		"email":       login + "@example.com",
		"contact":     "51999990000",
		"secret":      secret,
		"national_id": s.tc.NationalIDFor(user),
	})
}

func (s *authSteps) hasRegistered(ctx context.Context, user string) error {
	if err := s.register(user, s.tc.LoginFor(user)); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("register %s: status %d: %s", user, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *authSteps) isLoggedIn(ctx context.Context, user string) error {
	if err := s.hasRegistered(ctx, user); err != nil {
		return err
	}
	if err := s.tc.Do("POST", "/auth/login", "", map[string]any{
		"login":  s.tc.LoginFor(user),
		"secret": secret,
	}); err != nil {
		return err
	}
	token, err := s.tc.Field("token")
	if err != nil {
		return err
	}
	s.tc.SetToken(user, token.(string))
	return nil
}

func (s *authSteps) registerAgain(ctx context.Context, user string) error {
	return s.register(user, s.tc.LoginFor(user)+"-again")
}

func (s *authSteps) loginWrongSecret(ctx context.Context, user string) error {
	return s.tc.Do("POST", "/auth/login", "", map[string]any{
		"login":  s.tc.LoginFor(user),
		"secret": "not-" + secret,
	})
}

func (s *authSteps) logout(ctx context.Context, user string) error {
	return s.tc.Do("POST", "/auth/logout", user, nil)
}
