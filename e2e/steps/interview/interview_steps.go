package interview

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	Save(name, value string)
	Saved(name string) string
}

// RegisterSteps registers interview generation and feedback steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &interviewSteps{tc: tc}

	ctx.Step(`^I create an interview for "([^"]*)" with stack "([^"]*)" and (\d+) years of experience$`, steps.createInterview)
	ctx.Step(`^I have an interview for "([^"]*)"$`, steps.haveInterview)
	ctx.Step(`^I answer question (\d+) with "([^"]*)"$`, steps.answerQuestion)
	ctx.Step(`^I request feedback for the interview$`, steps.requestFeedback)
	ctx.Step(`^the interview should have (\d+) questions$`, steps.shouldHaveQuestions)
	ctx.Step(`^the feedback should list (\d+) answers?$`, steps.feedbackShouldList)
}

type interviewSteps struct {
	tc TestContext
}

func (s *interviewSteps) createInterview(_ context.Context, position, stack string, years int) error {
	return s.tc.POST("/api/interviews", map[string]interface{}{
		"job_position":   position,
		"job_desc":       stack,
		"job_experience": fmt.Sprint(years),
	})
}

func (s *interviewSteps) haveInterview(ctx context.Context, position string) error {
	if err := s.createInterview(ctx, position, "Go, PostgreSQL, Kafka", 3); err != nil {
		return err
	}
	id, err := s.tc.GetResponseField("mock_id")
	if err != nil {
		return err
	}
	s.tc.Save("interview_id", fmt.Sprint(id))
	questions, err := s.tc.GetResponseField("questions")
	if err != nil {
		return err
	}
	list, _ := questions.([]interface{})
	for i, q := range list {
		if obj, ok := q.(map[string]interface{}); ok {
			s.tc.Save(fmt.Sprintf("question_%d", i+1), fmt.Sprint(obj["Question"]))
		}
	}
	return nil
}

func (s *interviewSteps) answerQuestion(_ context.Context, n int, answer string) error {
	return s.tc.POST("/api/interviews/answers", map[string]interface{}{
		"mock_id":        s.tc.Saved("interview_id"),
		"question":       s.tc.Saved(fmt.Sprintf("question_%d", n)),
		"correct_answer": "",
		"user_answer":    answer,
	})
}

func (s *interviewSteps) requestFeedback(context.Context) error {
	return s.tc.GET("/api/interviews/" + s.tc.Saved("interview_id") + "/feedback")
}

func (s *interviewSteps) shouldHaveQuestions(_ context.Context, n int) error {
	v, err := s.tc.GetResponseField("questions")
	if err != nil {
		return err
	}
	if list, _ := v.([]interface{}); len(list) != n {
		return fmt.Errorf("expected %d questions, got %d", n, len(list))
	}
	return nil
}

func (s *interviewSteps) feedbackShouldList(_ context.Context, n int) error {
	v, err := s.tc.GetResponseField("answers")
	if err != nil {
		return err
	}
	if list, _ := v.([]interface{}); len(list) != n {
		return fmt.Errorf("expected %d answers, got %d", n, len(list))
	}
	return nil
}
