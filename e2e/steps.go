package e2e

import (
	"github.com/cucumber/godog"

	"mockview/e2e/steps/common"
	"mockview/e2e/steps/interview"
	"mockview/e2e/steps/session"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background, generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	interview.RegisterSteps(ctx, tc)

	// Proctored exam sessions
	session.RegisterSteps(ctx, tc)
}
