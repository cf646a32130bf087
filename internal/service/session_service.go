package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/remote"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/repository"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/logger"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/tracing"

	"go.uber.org/zap"
)

type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateLoading    SessionState = "loading"
	StateActive     SessionState = "active"
	StateSubmitting SessionState = "submitting"
	StateCompleted  SessionState = "completed"
	StateClosed     SessionState = "closed"
)

// QuizSession drives one student's timed attempt. All transitions go
// through the session mutex; the countdown goroutine and a manual submit
// funnel into the same guarded Submit, which is what makes auto-submit and
// user submit race-free.
type QuizSession struct {
	mu        sync.Mutex
	state     SessionState
	quiz      *model.Quiz
	questions []model.Question
	attempt   *model.Attempt
	answers   map[int]string
	remaining int
	stopTimer chan struct{}

	svc *SessionService
}

// SessionView is the state slice handed to UI bindings. Correct answers
// never leave the service.
type SessionView struct {
	State     SessionState   `json:"state"`
	Quiz      *QuizView      `json:"quiz,omitempty"`
	Remaining int            `json:"remaining,omitempty"`
	Attempt   *model.Attempt `json:"attempt,omitempty"`
}

type QuizView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TimeLimit   int            `json:"timeLimit"`
	TotalMarks  int            `json:"totalMarks"`
	Questions   []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      string                 `json:"id"`
	Kind    model.QuestionKind     `json:"kind"`
	Text    string                 `json:"text"`
	Options []model.QuestionOption `json:"options,omitempty"`
	Marks   int                    `json:"marks"`
	Order   int                    `json:"order"`
}

// SessionService owns one live session per student for the lifetime of the
// node. It is constructed once in app wiring, never a package global.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*QuizSession

	catalogRepo *repository.CatalogRepository
	attemptRepo *repository.AttemptRepository
	remote      remote.Service
	sync        *SyncService

	now          func() time.Time
	enableTicker bool
}

func NewSessionService(catalogRepo *repository.CatalogRepository, attemptRepo *repository.AttemptRepository, rs remote.Service, syncSvc *SyncService) *SessionService {
	return &SessionService{
		sessions:     make(map[string]*QuizSession),
		catalogRepo:  catalogRepo,
		attemptRepo:  attemptRepo,
		remote:       rs,
		sync:         syncSvc,
		now:          time.Now,
		enableTicker: true,
	}
}

// Start loads the quiz, snapshots it and opens an Active session. Students
// only; a concurrent instructor edit cannot affect the attempt once the
// snapshot is taken.
func (s *SessionService) Start(ctx context.Context, claims *util.Claims, quizID string) (*SessionView, error) {
	if !claims.HasRole(model.Student) {
		return nil, util.ErrNotAuthorized
	}

	s.mu.Lock()
	if existing, ok := s.sessions[claims.UserID]; ok {
		existing.mu.Lock()
		busy := existing.state == StateLoading || existing.state == StateActive || existing.state == StateSubmitting
		existing.mu.Unlock()
		if busy {
			s.mu.Unlock()
			return nil, util.ErrSessionActive
		}
	}
	session := &QuizSession{state: StateLoading, answers: make(map[int]string), svc: s}
	s.sessions[claims.UserID] = session
	s.mu.Unlock()

	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		session.mu.Lock()
		session.state = StateIdle
		session.mu.Unlock()
		return nil, err
	}

	attempt := &model.Attempt{
		QuizID:     quiz.ID,
		StudentID:  claims.UserID,
		StartedAt:  s.now(),
		TotalMarks: quiz.TotalMarks,
	}
	attempt.ID = model.GenerateUUID()
	attempt.SetAnswers(nil)

	// best effort: losing this snapshot only means the student restarts
	if err := s.attemptRepo.Save(attempt); err != nil {
		logger.Log.Warn("failed to persist attempt snapshot", zap.Error(err))
	}

	session.mu.Lock()
	session.quiz = quiz
	session.questions = questions
	session.attempt = attempt
	session.remaining = quiz.TimeLimit
	session.state = StateActive
	session.stopTimer = make(chan struct{})
	session.mu.Unlock()

	if s.enableTicker {
		go session.runTimer()
	}

	logger.Log.Info("quiz session started",
		zap.String("quiz", quiz.ID),
		zap.String("student", claims.UserID),
		zap.String("attempt", attempt.ID))

	return session.view(), nil
}

// loadQuiz goes network first and refreshes the local catalog cache; when
// the network is down it falls back to the cache so the quiz still opens
// offline.
func (s *SessionService) loadQuiz(ctx context.Context, quizID string) (*model.Quiz, []model.Question, error) {
	quiz, questions, err := s.remote.GetQuiz(ctx, quizID)
	if err == nil {
		if cacheErr := s.catalogRepo.SaveQuiz(quiz, questions); cacheErr != nil {
			logger.Log.Warn("failed to cache quiz locally", zap.Error(cacheErr))
		}
		return quiz, questions, nil
	}
	if err == util.ErrQuizNotFound {
		return nil, nil, err
	}

	cached, cachedQuestions, cacheErr := s.catalogRepo.FindQuiz(quizID)
	if cacheErr != nil {
		logger.Log.Error("quiz unavailable from network and cache",
			zap.String("quiz", quizID), zap.Error(err))
		return nil, nil, util.ErrLoadFailed
	}

	logger.Log.Info("serving quiz from local cache", zap.String("quiz", quizID))
	return cached, cachedQuestions, nil
}

// RecordAnswer overwrites the stored value for a question index. Only
// valid while Active; answers live in memory until submission.
func (s *SessionService) RecordAnswer(studentID string, questionIndex int, value string) error {
	session, err := s.sessionFor(studentID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	switch session.state {
	case StateSubmitting, StateCompleted:
		return util.ErrAttemptFrozen
	case StateActive:
		session.answers[questionIndex] = value
		return nil
	default:
		return util.ErrSessionNotActive
	}
}

// Tick advances the countdown by one second. When time runs out it fires
// the automatic submission; the Submitting transition inside Submit is the
// guard that keeps a concurrent manual submit from double-firing.
func (s *SessionService) Tick(studentID string) {
	session, err := s.sessionFor(studentID)
	if err != nil {
		return
	}

	session.mu.Lock()
	if session.state != StateActive {
		session.mu.Unlock()
		return
	}
	session.remaining--
	expired := session.remaining <= 0
	session.mu.Unlock()

	if expired {
		if _, err := s.Submit(context.Background(), studentID, false); err != nil {
			logger.Log.Error("automatic submission failed", zap.Error(err))
		}
	}
}

// Submit finalizes and delivers the attempt. A second call while already
// Submitting or Completed is a no-op returning the same view. Delivery
// failure is absorbed into the pending queue: the student always sees a
// completed submission.
func (s *SessionService) Submit(ctx context.Context, studentID string, manual bool) (*SessionView, error) {
	session, err := s.sessionFor(studentID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	switch session.state {
	case StateSubmitting, StateCompleted:
		view := session.viewLocked()
		session.mu.Unlock()
		return view, nil
	case StateActive:
		// fall through
	default:
		session.mu.Unlock()
		return nil, util.ErrSessionNotActive
	}

	session.state = StateSubmitting
	now := s.now()

	attempt := session.attempt
	attempt.Score = scoreAttempt(session.questions, session.answers)
	attempt.SetAnswers(session.answers)
	attempt.TimeTaken = int(now.Sub(attempt.StartedAt) / time.Second)
	attempt.Completed = true
	attempt.CompletedAt = &now
	session.stopTimerLocked()
	session.mu.Unlock()

	ctx, span := tracing.Tracer.Start(ctx, "session.submit")
	defer span.End()

	if err := s.remote.SubmitAttempt(ctx, attempt); err != nil {
		logger.Log.Warn("attempt delivery failed, queueing for sync",
			zap.String("attempt", attempt.ID), zap.Bool("manual", manual), zap.Error(err))
		if qErr := s.sync.EnqueueAttempt(attempt); qErr != nil {
			// queue write failed too; the snapshot row still holds the data
			logger.Log.Error("failed to queue attempt submission", zap.Error(qErr))
		}
	} else {
		logger.Log.Info("attempt delivered",
			zap.String("attempt", attempt.ID), zap.Int("score", attempt.Score))
	}

	if err := s.attemptRepo.Delete(attempt.ID); err != nil {
		logger.Log.Warn("failed to clear attempt snapshot", zap.Error(err))
	}

	session.mu.Lock()
	session.state = StateCompleted
	view := session.viewLocked()
	session.mu.Unlock()

	return view, nil
}

// Cancel discards the attempt without persisting or queueing anything.
func (s *SessionService) Cancel(studentID string) error {
	session, err := s.sessionFor(studentID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.state != StateActive {
		return util.ErrSessionNotActive
	}

	session.state = StateClosed
	session.stopTimerLocked()

	if err := s.attemptRepo.Delete(session.attempt.ID); err != nil {
		logger.Log.Warn("failed to clear attempt snapshot", zap.Error(err))
	}

	logger.Log.Info("quiz session cancelled", zap.String("attempt", session.attempt.ID))
	return nil
}

func (s *SessionService) View(studentID string) (*SessionView, error) {
	session, err := s.sessionFor(studentID)
	if err != nil {
		return nil, err
	}
	return session.view(), nil
}

func (s *SessionService) sessionFor(studentID string) (*QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[studentID]
	if !ok {
		return nil, util.ErrNoActiveSession
	}
	return session, nil
}

// scoreAttempt compares answers to the correct reference with trimmed,
// case-insensitive equality. Short answers are stored for manual grading
// and never contribute to the automatic score.
func scoreAttempt(questions []model.Question, answers map[int]string) int {
	score := 0
	for _, q := range questions {
		if q.Kind == model.ShortAnswer {
			continue
		}
		answer, ok := answers[q.Order]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer)) {
			score += q.Marks
		}
	}
	return score
}

func (q *QuizSession) runTimer() {
	q.mu.Lock()
	stop := q.stopTimer
	studentID := q.attempt.StudentID
	q.mu.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			q.svc.Tick(studentID)
			q.mu.Lock()
			active := q.state == StateActive
			q.mu.Unlock()
			if !active {
				return
			}
		case <-stop:
			return
		}
	}
}

func (q *QuizSession) stopTimerLocked() {
	if q.stopTimer != nil {
		close(q.stopTimer)
		q.stopTimer = nil
	}
}

func (q *QuizSession) view() *SessionView {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.viewLocked()
}

func (q *QuizSession) viewLocked() *SessionView {
	v := &SessionView{State: q.state, Remaining: q.remaining}
	if q.quiz != nil {
		qv := &QuizView{
			ID:          q.quiz.ID,
			Title:       q.quiz.Title,
			Description: q.quiz.Description,
			TimeLimit:   q.quiz.TimeLimit,
			TotalMarks:  q.quiz.TotalMarks,
		}
		for i := range q.questions {
			question := &q.questions[i]
			opts, err := question.OptionList()
			if err != nil {
				logger.Log.Warn("malformed question options", zap.String("question", question.ID))
			}
			qv.Questions = append(qv.Questions, QuestionView{
				ID:      question.ID,
				Kind:    question.Kind,
				Text:    question.Text,
				Options: opts,
				Marks:   question.Marks,
				Order:   question.Order,
			})
		}
		v.Quiz = qv
	}
	if q.state == StateCompleted && q.attempt != nil {
		v.Attempt = q.attempt
	}
	return v
}
