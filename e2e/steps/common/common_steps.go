package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context these steps need.
type TestContext interface {
	Do(method, path, user string, body any) error
	LastStatus() int
	LastHeader(k string) string
	LastBody() []byte
	Field(name string) (any, error)
}

// RegisterSteps registers request and assertion steps shared by all features.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is healthy$`, steps.serviceIsHealthy)
	ctx.Step(`^"([^"]*)" sends GET "([^"]*)"$`, steps.getAs)
	ctx.Step(`^an anonymous caller sends GET "([^"]*)"$`, steps.getAnonymous)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (\d+)$`, steps.numericFieldShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be set$`, steps.headerShouldBeSet)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsHealthy(ctx context.Context) error {
	if err := s.tc.Do("GET", "/healthz", "", nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) getAs(ctx context.Context, user, path string) error {
	return s.tc.Do("GET", path, user, nil)
}

func (s *commonSteps) getAnonymous(ctx context.Context, path string) error {
	return s.tc.Do("GET", path, "", nil)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, want string) error {
	v, err := s.tc.Field("error")
	if err != nil {
		return err
	}
	if v != want {
		return fmt.Errorf("expected error %q, got %v", want, v)
	}
	return nil
}

func (s *commonSteps) numericFieldShouldBe(ctx context.Context, field string, want int) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok || int(n) != want {
		return fmt.Errorf("expected %s = %d, got %v", field, want, v)
	}
	return nil
}

func (s *commonSteps) headerShouldBeSet(ctx context.Context, name string) error {
	v := s.tc.LastHeader(name)
	if v == "" {
		return fmt.Errorf("header %s is missing", name)
	}
	if _, err := strconv.Atoi(v); err != nil && name == "Retry-After" {
		return fmt.Errorf("Retry-After is not a number of seconds: %q", v)
	}
	return nil
}
