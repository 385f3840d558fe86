package models

import (
	"math"
	"time"
)

// Question is one generated interview question with its reference answer.
type Question struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

// Interview is a generated mock interview owned by its creator.
type Interview struct {
	MockID        string     `json:"mock_id"`
	Questions     []Question `json:"questions"`
	JobPosition   string     `json:"job_position"`
	JobDesc       string     `json:"job_desc"`
	JobExperience string     `json:"job_experience"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Answer is a rated answer to one question. Rating 0 means no answer was recorded.
type Answer struct {
	ID         int64     `json:"id"`
	MockIDRef  string    `json:"mock_id"`
	Question   string    `json:"question"`
	CorrectAns string    `json:"correct_answer"`
	UserAns    string    `json:"user_answer"`
	Feedback   string    `json:"feedback"`
	Rating     int       `json:"rating"`
	UserEmail  string    `json:"user_email"`
	CreatedAt  time.Time `json:"created_at"`
}

// Feedback is the results page view of an interview.
type Feedback struct {
	InterviewID   string   `json:"interview_id"`
	JobPosition   string   `json:"job_position,omitempty"`
	OverallRating float64  `json:"overall_rating"`
	Answers       []Answer `json:"answers"`
}

// OverallRating is the mean rating rounded to one decimal, 0 when there are no answers.
func OverallRating(answers []Answer) float64 {
	if len(answers) == 0 {
		return 0
	}
	sum := 0
	for _, a := range answers {
		sum += a.Rating
	}
	return math.Round(float64(sum)/float64(len(answers))*10) / 10
}

// Summary is a list entry for the dashboard.
type Summary struct {
	Interview
	AnswerCount int `json:"answer_count"`
}
