package e2e

import (
	"github.com/cucumber/godog"

	"id-recon/e2e/steps/common"
	"id-recon/e2e/steps/identify"
	"id-recon/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	identify.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
