package e2e

import (
	"github.com/cucumber/godog"

	"floodrelief/e2e/steps/auth"
	"floodrelief/e2e/steps/common"
	"floodrelief/e2e/steps/ratelimit"
	"floodrelief/e2e/steps/records"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	records.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
