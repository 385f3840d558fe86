package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultAudioMIME = "audio/webm"

	TranscribePrompt = "Transcribe this audio clearly. If no speech is detected, return an empty string."

	// QuestionCount is how many questions an interview is generated with.
	QuestionCount = 5

	// MinUnderstoodRunes is the shortest transcription treated as speech.
	MinUnderstoodRunes = 5
)

// JobProfile is the candidate's target role.
type JobProfile struct {
	Position   string
	Desc       string
	Experience string
}

// ValidationPrompt asks for a single integer verdict on the job profile.
func ValidationPrompt(job JobProfile) string {
	var sb strings.Builder
	sb.WriteString("You are a validation engine.\n")
	sb.WriteString("Return ONLY a single integer. No text. No explanation.\n")
	sb.WriteString("Validation rules:\n")
	sb.WriteString("- If job role is not a real-world job or is nonsensical → return -1\n")
	sb.WriteString("- If job role, job description, AND years of experience are all invalid → return 0\n")
	sb.WriteString("- If job description does not logically match the job role → return -2\n")
	sb.WriteString("- If years of experience <= 0 OR > 50 → return -3\n")
	sb.WriteString("- If all inputs are realistic and logically consistent → return 1\n")
	sb.WriteString("Use common real-world knowledge.\n")
	writeJob(&sb, job)
	return sb.String()
}

// GenerationPrompt asks for QuestionCount question/answer pairs as a JSON array.
func GenerationPrompt(job JobProfile) string {
	var sb strings.Builder
	sb.WriteString("You are a JSON API. Return ONLY valid JSON.\n")
	sb.WriteString("Return exactly this format:\n[\n")
	for i := range QuestionCount {
		sb.WriteString(`  { "Question": "string", "Answer": "string" }`)
		if i < QuestionCount-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	writeJob(&sb, job)
	return sb.String()
}

// RatingPrompt asks for a 1-10 rating with short feedback.
func RatingPrompt(question, answer string) string {
	return fmt.Sprintf(`You are an interview evaluator.

Question: %s
User Answer: %s

Respond ONLY in valid JSON.
No markdown. No explanation.

{
  "rating": number (1-10),
  "feedback": string (3-5 lines)
}
`, question, answer)
}

func writeJob(sb *strings.Builder, job JobProfile) {
	sb.WriteString("Input:\n")
	fmt.Fprintf(sb, "Job Role: %s\n", job.Position)
	fmt.Fprintf(sb, "Job Description: %s\n", job.Desc)
	fmt.Fprintf(sb, "Years of Experience: %s\n", job.Experience)
}

// CleanJSON strips markdown code fences the model sometimes wraps JSON in.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseValidationCode reads the integer verdict. ok is false for anything else.
func ParseValidationCode(raw string) (code int, ok bool) {
	n, err := strconv.Atoi(strings.TrimSpace(CleanJSON(raw)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// GeneratedQuestion mirrors the generation prompt's JSON shape.
type GeneratedQuestion struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

// ParseQuestions decodes the generated array. An empty or non-array payload is an error.
func ParseQuestions(raw string) ([]GeneratedQuestion, error) {
	var out []GeneratedQuestion
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("decode generated questions: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no questions generated")
	}
	for i, q := range out {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("generated question %d is empty", i)
		}
	}
	return out, nil
}

// Rating mirrors the rating prompt's JSON shape.
type Rating struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// ParseRating decodes a rating and clamps it to 1..10.
func ParseRating(raw string) (Rating, error) {
	var r struct {
		Rating   json.Number `json:"rating"`
		Feedback string      `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &r); err != nil {
		return Rating{}, fmt.Errorf("decode rating: %w", err)
	}
	f, err := r.Rating.Float64()
	if err != nil {
		return Rating{}, fmt.Errorf("decode rating value: %w", err)
	}
	n := int(f + 0.5)
	n = max(1, min(10, n))
	return Rating{Rating: n, Feedback: strings.TrimSpace(r.Feedback)}, nil
}

// Understood reports whether a transcription is long enough to count as speech.
func Understood(text string) bool {
	return len([]rune(strings.TrimSpace(text))) >= MinUnderstoodRunes
}
