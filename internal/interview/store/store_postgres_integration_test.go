//go:build integration

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/suite"

	"mockview/internal/interview/models"
	"mockview/internal/platform/postgres"
	"mockview/pkg/platform/sentinel"
	"mockview/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	db    *sql.DB
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	_, err := s.pg.Pool.Exec(s.ctx, postgres.Schema)
	s.Require().NoError(err)
	s.db = stdlib.OpenDBFromPool(s.pg.Pool)
	s.store = NewPostgresStore(s.db)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.db.Close()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "mock_interview", "user_answer"))
}

func (s *PostgresStoreSuite) TestInterviewRoundTrip() {
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	iv := &models.Interview{
		MockID:        "iv-1",
		Questions:     []models.Question{{Question: "What is a slice?", Answer: "A view over an array."}},
		JobPosition:   "Go Developer",
		JobDesc:       "APIs",
		JobExperience: "3",
		CreatedBy:     "a@example.com",
		CreatedAt:     at,
	}
	s.Require().NoError(s.store.Create(s.ctx, iv))
	s.ErrorIs(s.store.Create(s.ctx, iv), sentinel.ErrConflict)

	got, err := s.store.FindByID(s.ctx, "iv-1")
	s.Require().NoError(err)
	s.Equal(iv.Questions, got.Questions)
	s.True(at.Equal(got.CreatedAt))

	_, err = s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	newer := *iv
	newer.MockID = "iv-2"
	newer.CreatedAt = at.Add(time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, &newer))
	list, err := s.store.ListByCreator(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("iv-2", list[0].MockID)
}

func (s *PostgresStoreSuite) TestAnswers() {
	for i, q := range []string{"Q1", "Q2"} {
		a := &models.Answer{
			MockIDRef: "iv-1", Question: q, CorrectAns: "ref", UserAns: "mine",
			Feedback: "ok", Rating: 6 + i, UserEmail: "a@example.com", CreatedAt: time.Now().UTC(),
		}
		s.Require().NoError(s.store.Append(s.ctx, a))
		s.NotZero(a.ID)
	}

	list, err := s.store.ListByInterview(s.ctx, "iv-1")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Q1", list[0].Question)
	s.Equal(7, list[1].Rating)

	counts, err := s.store.CountByInterviews(s.ctx, []string{"iv-1", "iv-9"})
	s.Require().NoError(err)
	s.Equal(map[string]int{"iv-1": 2}, counts)
}
