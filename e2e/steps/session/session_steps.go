package session

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	PUT(path string, body interface{}) error
	GET(path string) error
	DELETE(path string) error
	GetResponseField(field string) (interface{}, error)
	Save(name, value string)
	Saved(name string) string
}

// RegisterSteps registers proctored exam session steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &sessionSteps{tc: tc}

	ctx.Step(`^I start an exam session for the interview$`, steps.startSession)
	ctx.Step(`^I start an exam session for interview "([^"]*)"$`, steps.startSessionFor)
	ctx.Step(`^the browser reports a "([^"]*)" signal$`, steps.sendSignal)
	ctx.Step(`^the browser reports the page as hidden$`, steps.pageHidden)
	ctx.Step(`^I type "([^"]*)" as the answer to question (\d+)$`, steps.typeAnswer)
	ctx.Step(`^I move to the next question$`, steps.next)
	ctx.Step(`^I submit the exam$`, steps.submit)
	ctx.Step(`^I abandon the exam$`, steps.abandon)
	ctx.Step(`^I fetch the session$`, steps.fetch)
	ctx.Step(`^the remaining budget should be (\d+)$`, steps.remainingBudgetShouldBe)
}

type sessionSteps struct {
	tc TestContext
}

func (s *sessionSteps) path(suffix string) string {
	return "/api/sessions/" + s.tc.Saved("session_id") + suffix
}

func (s *sessionSteps) startSession(ctx context.Context) error {
	return s.startSessionFor(ctx, s.tc.Saved("interview_id"))
}

func (s *sessionSteps) startSessionFor(_ context.Context, interviewID string) error {
	if err := s.tc.POST("/api/sessions", map[string]interface{}{"interview_id": interviewID}); err != nil {
		return err
	}
	if id, err := s.tc.GetResponseField("session_id"); err == nil {
		s.tc.Save("session_id", fmt.Sprint(id))
	}
	return nil
}

func (s *sessionSteps) sendSignal(_ context.Context, kind string) error {
	return s.tc.POST(s.path("/signals"), map[string]interface{}{"type": kind})
}

func (s *sessionSteps) pageHidden(context.Context) error {
	return s.tc.POST(s.path("/signals"), map[string]interface{}{"type": "visibility", "hidden": true})
}

func (s *sessionSteps) typeAnswer(_ context.Context, text string, n int) error {
	return s.tc.PUT(s.path(fmt.Sprintf("/answers/%d", n-1)), map[string]interface{}{"text": text})
}

func (s *sessionSteps) next(context.Context) error {
	return s.tc.POST(s.path("/next"), nil)
}

func (s *sessionSteps) submit(context.Context) error {
	return s.tc.POST(s.path("/submit"), nil)
}

func (s *sessionSteps) abandon(context.Context) error {
	return s.tc.DELETE(s.path(""))
}

func (s *sessionSteps) fetch(context.Context) error {
	return s.tc.GET(s.path(""))
}

func (s *sessionSteps) remainingBudgetShouldBe(ctx context.Context, want int) error {
	if err := s.fetch(ctx); err != nil {
		return err
	}
	v, err := s.tc.GetResponseField("remaining_budget")
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != fmt.Sprint(want) {
		return fmt.Errorf("expected remaining budget %d, got %s", want, got)
	}
	return nil
}
