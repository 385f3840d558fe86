package store

import (
	"context"
	"slices"
	"sync"

	"mockview/internal/interview/models"
	"mockview/pkg/platform/sentinel"
)

// InMemoryInterviewStore keeps interviews in process memory.
type InMemoryInterviewStore struct {
	mu         sync.RWMutex
	interviews map[string]models.Interview
}

func NewInMemoryInterviewStore() *InMemoryInterviewStore {
	return &InMemoryInterviewStore{interviews: make(map[string]models.Interview)}
}

func (s *InMemoryInterviewStore) Create(_ context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviews[iv.MockID]; ok {
		return sentinel.ErrConflict
	}
	cp := *iv
	cp.Questions = slices.Clone(iv.Questions)
	s.interviews[iv.MockID] = cp
	return nil
}

func (s *InMemoryInterviewStore) FindByID(_ context.Context, mockID string) (*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.interviews[mockID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	iv.Questions = slices.Clone(iv.Questions)
	return &iv, nil
}

// ListByCreator returns the creator's interviews, newest first.
func (s *InMemoryInterviewStore) ListByCreator(_ context.Context, email string) ([]*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Interview
	for _, iv := range s.interviews {
		if iv.CreatedBy == email {
			iv.Questions = slices.Clone(iv.Questions)
			out = append(out, &iv)
		}
	}
	slices.SortFunc(out, func(a, b *models.Interview) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(a.MockID, b.MockID)
	})
	return out, nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// InMemoryAnswerStore keeps answers in insertion order.
type InMemoryAnswerStore struct {
	mu      sync.RWMutex
	nextID  int64
	answers []models.Answer
}

func NewInMemoryAnswerStore() *InMemoryAnswerStore {
	return &InMemoryAnswerStore{}
}

func (s *InMemoryAnswerStore) Append(_ context.Context, a *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	s.answers = append(s.answers, *a)
	return nil
}

func (s *InMemoryAnswerStore) ListByInterview(_ context.Context, mockID string) ([]models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Answer{}
	for _, a := range s.answers {
		if a.MockIDRef == mockID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *InMemoryAnswerStore) CountByInterviews(_ context.Context, mockIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(mockIDs))
	for _, a := range s.answers {
		if slices.Contains(mockIDs, a.MockIDRef) {
			counts[a.MockIDRef]++
		}
	}
	return counts, nil
}
