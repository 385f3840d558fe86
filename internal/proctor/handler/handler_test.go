package handler

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/ports/mocks"
	"mockview/internal/proctor/session"
	"mockview/internal/proctor/store"
	dErrors "mockview/pkg/domain-errors"
	"mockview/pkg/platform/middleware/metadata"
	"mockview/pkg/requestcontext"
	tu "mockview/pkg/testutil"
)

// =============================================================================
// Proctor Handler Test Suite
// =============================================================================
// Justification: runs real sessions behind the router so ownership checks,
// status codes and the event stream are tested end to end in process.

const (
	candidate  = "ada@example.com"
	userHeader = "X-Test-User"
	chromeUA   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

var questions = []models.Question{
	{Question: "What is a goroutine?", Answer: "A lightweight thread."},
	{Question: "What is a channel?", Answer: "A typed conduit."},
}

type recordingPersister struct {
	mu      sync.Mutex
	records []models.AnswerRecord
}

func (p *recordingPersister) PersistAnswer(_ context.Context, rec models.AnswerRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

func (p *recordingPersister) Records() []models.AnswerRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.AnswerRecord(nil), p.records...)
}

type stubQuestions struct{}

func (stubQuestions) Questions(ctx context.Context, id string) ([]models.Question, error) {
	if id != "iv-1" || requestcontext.UserEmail(ctx) != candidate {
		return nil, dErrors.New(dErrors.CodeNotFound, "interview not found")
	}
	return questions, nil
}

// asUser stands in for the auth middleware.
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email := r.Header.Get(userHeader); email != "" {
			r = r.WithContext(requestcontext.WithUserEmail(r.Context(), email))
		}
		next.ServeHTTP(w, r)
	})
}

type HandlerSuite struct {
	suite.Suite
	cancel      context.CancelFunc
	persister   *recordingPersister
	transcriber *mocks.MockTranscriber
	snapshots   *store.InMemorySnapshotStore
	manager     *session.Manager
	router      chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.setup(Config{Heartbeat: time.Hour})
}

func (s *HandlerSuite) setup(cfg Config) {
	base, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.persister = &recordingPersister{}
	s.snapshots = store.NewInMemorySnapshotStore()
	s.transcriber = mocks.NewMockTranscriber(gomock.NewController(s.T()))

	sessionCfg := session.DefaultConfig()
	sessionCfg.Focus.PollInterval = 0
	sessionCfg.ClockTick = time.Hour
	manager, err := session.NewManager(base, s.persister,
		session.WithSessionOptions(session.WithConfig(sessionCfg)),
		session.WithSnapshotReader(s.snapshots),
	)
	s.Require().NoError(err)
	s.manager = manager

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	s.router.Use(metadata.ClientMetadata, asUser)
	New(manager, stubQuestions{}, s.transcriber, cfg, logger).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.manager.Shutdown(ctx))
	s.cancel()
}

func (s *HandlerSuite) request(method, path, email string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = tu.NewJSONRequest(s.T(), method, path, body)
	} else {
		req = tu.NewRequest(s.T(), method, path)
	}
	if email != "" {
		req.Header.Set(userHeader, email)
	}
	req.Header.Set("User-Agent", chromeUA)
	return tu.DoRequest(s.router, req)
}

func (s *HandlerSuite) start() SessionResponse {
	rr := s.request(http.MethodPost, "/api/sessions", candidate, CreateRequest{InterviewID: "iv-1"})
	tu.AssertStatus(s.T(), rr, http.StatusCreated)
	return *tu.UnmarshalResponse[SessionResponse](s.T(), rr)
}

func (s *HandlerSuite) TestCreate() {
	s.Run("starts a session on the caller's interview", func() {
		resp := s.start()
		s.NotEmpty(resp.SessionID)
		s.Equal("iv-1", resp.InterviewID)
		s.Equal(10, resp.RemainingBudget)
		s.Equal(2, resp.QuestionCount)
		s.Equal("What is a goroutine?", resp.Question)
		s.Equal(600, resp.TimeRemaining)
		s.Equal("10:00", resp.TimeDisplay)
		s.Contains(resp.Browser, "Chrome")
	})

	s.Run("unknown interview", func() {
		rr := s.request(http.MethodPost, "/api/sessions", candidate, CreateRequest{InterviewID: "iv-9"})
		tu.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("missing interview id", func() {
		rr := s.request(http.MethodPost, "/api/sessions", candidate, CreateRequest{})
		tu.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("unauthenticated", func() {
		rr := s.request(http.MethodPost, "/api/sessions", "", CreateRequest{InterviewID: "iv-1"})
		tu.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("exam minutes are ignored unless allowed", func() {
		rr := s.request(http.MethodPost, "/api/sessions", candidate, CreateRequest{InterviewID: "iv-1", ExamMinutes: 2})
		tu.AssertStatus(s.T(), rr, http.StatusCreated)
		s.Equal(600, tu.UnmarshalResponse[SessionResponse](s.T(), rr).TimeRemaining)
	})
}

func (s *HandlerSuite) TestCreateWithClientMinutes() {
	s.Require().NoError(s.manager.Shutdown(context.Background()))
	s.cancel()
	s.setup(Config{AllowClientMinutes: true, MaxExamDuration: 30 * time.Minute, Heartbeat: time.Hour})

	rr := s.request(http.MethodPost, "/api/sessions", candidate, CreateRequest{InterviewID: "iv-1", ExamMinutes: 2})
	tu.AssertStatus(s.T(), rr, http.StatusCreated)
	resp := tu.UnmarshalResponse[SessionResponse](s.T(), rr)
	s.Equal(120, resp.TimeRemaining)
	s.Equal("2:00", resp.TimeDisplay)

	rr = s.request(http.MethodPost, "/api/sessions", candidate, CreateRequest{InterviewID: "iv-1", ExamMinutes: 45})
	tu.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestCreateDuringShutdown() {
	s.Require().NoError(s.manager.Shutdown(context.Background()))

	rr := s.request(http.MethodPost, "/api/sessions", candidate, CreateRequest{InterviewID: "iv-1"})
	tu.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
}

func (s *HandlerSuite) TestSessionsAreOwnerScoped() {
	id := s.start().SessionID

	rr := s.request(http.MethodGet, "/api/sessions/"+id, "mallory@example.com", nil)
	tu.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/submit", "mallory@example.com", nil)
	tu.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = s.request(http.MethodGet, "/api/sessions/missing", candidate, nil)
	tu.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestSignalsDeduct() {
	id := s.start().SessionID

	rr := s.request(http.MethodPost, "/api/sessions/"+id+"/signals", candidate, SignalRequest{Type: "blur"})
	tu.AssertStatus(s.T(), rr, http.StatusAccepted)

	rr = s.request(http.MethodGet, "/api/sessions/"+id, candidate, nil)
	tu.AssertStatusOK(s.T(), rr)
	s.Equal(8, tu.UnmarshalResponse[SessionResponse](s.T(), rr).RemainingBudget)

	// A repeat inside the cooldown is free; another reason is not.
	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/signals", candidate, SignalRequest{Type: "blur"})
	tu.AssertStatus(s.T(), rr, http.StatusAccepted)
	rr = s.request(http.MethodGet, "/api/sessions/"+id, candidate, nil)
	s.Equal(8, tu.UnmarshalResponse[SessionResponse](s.T(), rr).RemainingBudget)

	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/signals", candidate, SignalRequest{Type: "visibility", Hidden: true})
	tu.AssertStatus(s.T(), rr, http.StatusAccepted)
	rr = s.request(http.MethodGet, "/api/sessions/"+id, candidate, nil)
	s.Equal(6, tu.UnmarshalResponse[SessionResponse](s.T(), rr).RemainingBudget)

	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/signals", candidate, SignalRequest{Type: "shake"})
	tu.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestFramesAndCameraError() {
	id := s.start().SessionID

	rr := s.request(http.MethodPost, "/api/sessions/"+id+"/frames", candidate, models.Frame{
		Landmarks: []models.Point{{X: 0.5, Y: 0.5}},
	})
	tu.AssertStatus(s.T(), rr, http.StatusAccepted)
	s.True(tu.UnmarshalResponse[FrameResponse](s.T(), rr).Accepted)

	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/camera-error", candidate, CameraErrorRequest{Message: "NotAllowedError"})
	tu.AssertStatus(s.T(), rr, http.StatusAccepted)

	s.Eventually(func() bool {
		rr := s.request(http.MethodGet, "/api/sessions/"+id, candidate, nil)
		return tu.UnmarshalResponse[SessionResponse](s.T(), rr).GazeStatus == models.GazeError
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *HandlerSuite) TestNavigationAndAnswers() {
	id := s.start().SessionID

	rr := s.request(http.MethodPut, "/api/sessions/"+id+"/answers/0", candidate, AnswerRequest{Text: "A cheap thread."})
	tu.AssertStatusOK(s.T(), rr)

	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/next", candidate, nil)
	tu.AssertStatusOK(s.T(), rr)
	q := tu.UnmarshalResponse[QuestionResponse](s.T(), rr)
	s.Equal(1, q.ActiveIndex)
	s.Equal("What is a channel?", q.Question)

	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/next", candidate, nil)
	s.Equal(1, tu.UnmarshalResponse[QuestionResponse](s.T(), rr).ActiveIndex)

	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/previous", candidate, nil)
	q = tu.UnmarshalResponse[QuestionResponse](s.T(), rr)
	s.Equal(0, q.ActiveIndex)
	s.Equal("A cheap thread.", q.Answer)

	rr = s.request(http.MethodGet, "/api/sessions/"+id+"/questions/1", candidate, nil)
	tu.AssertStatusOK(s.T(), rr)

	rr = s.request(http.MethodPut, "/api/sessions/"+id+"/answers/7", candidate, AnswerRequest{Text: "x"})
	tu.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = s.request(http.MethodPut, "/api/sessions/"+id+"/answers/one", candidate, AnswerRequest{Text: "x"})
	tu.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestAnswerAudioAppends() {
	id := s.start().SessionID
	rr := s.request(http.MethodPut, "/api/sessions/"+id+"/answers/0", candidate, AnswerRequest{Text: "Goroutines:"})
	tu.AssertStatusOK(s.T(), rr)
	s.transcriber.EXPECT().
		Transcribe(gomock.Any(), []byte("opus"), gomock.Any()).
		Return("It is a cheap thread.", nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "answer.webm")
	s.Require().NoError(err)
	_, err = part.Write([]byte("opus"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/answers/0/audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(userHeader, candidate)
	rr = tu.DoRequest(s.router, req)

	tu.AssertStatusOK(s.T(), rr)
	resp := tu.UnmarshalResponse[AnswerResponse](s.T(), rr)
	s.Equal("Goroutines: It is a cheap thread.", resp.Text)
	s.Equal("It is a cheap thread.", resp.Transcript)
	s.Require().NotNil(resp.Understood)
	s.True(*resp.Understood)
}

func (s *HandlerSuite) TestSubmit() {
	id := s.start().SessionID
	s.request(http.MethodPut, "/api/sessions/"+id+"/answers/1", candidate, AnswerRequest{Text: "A pipe."})

	rr := s.request(http.MethodPost, "/api/sessions/"+id+"/submit", candidate, nil)
	tu.AssertStatusOK(s.T(), rr)
	report := tu.UnmarshalResponse[models.SubmitReport](s.T(), rr)
	s.Equal(2, report.Persisted)
	s.False(report.AutoSubmit)
	s.Equal(models.ResultsPath("iv-1"), report.RedirectTo)

	records := s.persister.Records()
	s.Require().Len(records, 2)
	s.Equal("", records[0].Answer)
	s.Equal("A pipe.", records[1].Answer)
	s.Equal(candidate, records[1].UserEmail)
}

func (s *HandlerSuite) TestAbortThenReadSnapshot() {
	id := s.start().SessionID

	rr := s.request(http.MethodDelete, "/api/sessions/"+id, candidate, nil)
	tu.AssertStatus(s.T(), rr, http.StatusNoContent)
	s.Eventually(func() bool { return s.manager.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
	s.Empty(s.persister.Records())

	rr = s.request(http.MethodGet, "/api/sessions/"+id, candidate, nil)
	tu.AssertStatusOK(s.T(), rr)
	snap := tu.UnmarshalResponse[SessionResponse](s.T(), rr)
	s.True(snap.Terminated)
	s.Equal(models.EndAbandoned, snap.EndReason)

	rr = s.request(http.MethodGet, "/api/sessions/"+id, "mallory@example.com", nil)
	tu.AssertStatus(s.T(), rr, http.StatusNotFound)

	rr = s.request(http.MethodGet, "/api/sessions/"+id+"/events", candidate, nil)
	tu.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "event: navigate\ndata: {\"path\":\""+models.ResultsPath("iv-1")+"\"}\n\n")
}

func (s *HandlerSuite) TestEventStream() {
	id := s.start().SessionID
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/"+id+"/events", nil)
	s.Require().NoError(err)
	req.Header.Set(userHeader, candidate)
	resp, err := srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	rr := s.request(http.MethodPost, "/api/sessions/"+id+"/signals", candidate, SignalRequest{Type: "blur"})
	tu.AssertStatus(s.T(), rr, http.StatusAccepted)
	rr = s.request(http.MethodPost, "/api/sessions/"+id+"/submit", candidate, nil)
	tu.AssertStatusOK(s.T(), rr)

	var events []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		// Gaze status changes race the subscription and are not asserted.
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok && name != "status" {
			events = append(events, name)
		}
	}
	s.Equal([]string{"notification", "camera_release", "navigate", "ended"}, events)
}
