// Package prtest holds test doubles shared by the proctor packages.
package prtest

import (
	"context"
	"sync"

	"mockview/internal/proctor/models"
)

// Deduction is one call seen by a Recorder.
type Deduction struct {
	Points int
	Reason models.Reason
}

// Recorder is a Deductor that records every call and always reports success.
type Recorder struct {
	mu    sync.Mutex
	calls []Deduction
}

func (r *Recorder) Deduct(_ context.Context, points int, reason models.Reason) models.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Deduction{Points: points, Reason: reason})
	return models.OutcomeApplied
}

func (r *Recorder) Calls() []Deduction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Deduction(nil), r.calls...)
}

// Count returns how many deductions were made for reason.
func (r *Recorder) Count(reason models.Reason) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Reason == reason {
			n++
		}
	}
	return n
}
