package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AuthenticateAs(email string) error
	ClearAuth()
	GET(path string) error
	LastStatus() int
	LastBody() []byte
	GetResponseField(field string) (interface{}, error)
	Save(name, value string)
}

// RegisterSteps registers background, request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am authenticated as "([^"]*)"$`, steps.authenticateAs)
	ctx.Step(`^I am not authenticated$`, steps.notAuthenticated)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.bodyShouldContain)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, steps.saveField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) authenticateAs(_ context.Context, email string) error {
	return s.tc.AuthenticateAs(email)
}

func (s *commonSteps) notAuthenticated(context.Context) error {
	s.tc.ClearAuth()
	return nil
}

func (s *commonSteps) get(_ context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) statusShouldBe(_ context.Context, status int) error {
	if got := s.tc.LastStatus(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(_ context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) bodyShouldContain(_ context.Context, text string) error {
	if !strings.Contains(string(s.tc.LastBody()), text) {
		return fmt.Errorf("response does not contain %q: %s", text, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) saveField(_ context.Context, field, name string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	s.tc.Save(name, fmt.Sprint(v))
	return nil
}
