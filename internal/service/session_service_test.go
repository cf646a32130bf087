package service

import (
	"context"
	"testing"
	"time"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/repository"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func physicsQuiz(t *testing.T) (*model.Quiz, []model.Question) {
	quiz := &model.Quiz{
		Title:      "Physics basics",
		TimeLimit:  30,
		TotalMarks: 10,
	}
	quiz.ID = "quiz-1"

	options := mustJSON(t, []model.QuestionOption{
		{Key: "A", Text: "Friction"},
		{Key: "B", Text: "Gravity"},
		{Key: "C", Text: "Magnetism"},
	})

	mc := model.Question{
		QuizID:        quiz.ID,
		Kind:          model.MultipleChoice,
		Text:          "What pulls objects toward the earth?",
		Options:       options,
		CorrectAnswer: "B",
		Marks:         5,
		Order:         0,
	}
	mc.ID = "q-1"

	sa := model.Question{
		QuizID: quiz.ID,
		Kind:   model.ShortAnswer,
		Text:   "Describe gravity in your own words.",
		Marks:  5,
		Order:  1,
	}
	sa.ID = "q-2"

	return quiz, []model.Question{mc, sa}
}

func newSessionFixture(t *testing.T, fr *fakeRemote) (*SessionService, *SyncService) {
	t.Helper()
	db := newTestDB(t)
	syncSvc := NewSyncService(repository.NewPendingOperationRepository(db), fr)
	svc := NewSessionService(
		repository.NewCatalogRepository(db),
		repository.NewAttemptRepository(db),
		fr,
		syncSvc,
	)
	svc.enableTicker = false
	return svc, syncSvc
}

func studentClaims(id string) *util.Claims {
	return &util.Claims{UserID: id, Role: model.Student}
}

func TestStartRequiresStudentRole(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, _ := newSessionFixture(t, fr)

	_, err := svc.Start(context.Background(), &util.Claims{UserID: "t-1", Role: model.Teacher}, "quiz-1")
	assert.ErrorIs(t, err, util.ErrNotAuthorized)
}

func TestStartFailsWhenNetworkAndCacheMiss(t *testing.T) {
	fr := &fakeRemote{failGet: true}
	svc, _ := newSessionFixture(t, fr)

	_, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	assert.ErrorIs(t, err, util.ErrLoadFailed)
}

func TestStartFallsBackToCachedCatalog(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, _ := newSessionFixture(t, fr)

	// first start populates the local cache
	view, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel("s-1"))
	assert.Equal(t, StateActive, view.State)

	// network goes away, second student still gets the quiz
	fr.mu.Lock()
	fr.failGet = true
	fr.mu.Unlock()

	view, err = svc.Start(context.Background(), studentClaims("s-2"), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, StateActive, view.State)
	assert.Equal(t, "Physics basics", view.Quiz.Title)
	require.Len(t, view.Quiz.Questions, 2)
}

func TestStartSnapshotHidesCorrectAnswers(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, _ := newSessionFixture(t, fr)

	view, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)

	require.Len(t, view.Quiz.Questions, 2)
	assert.Equal(t, model.MultipleChoice, view.Quiz.Questions[0].Kind)
	assert.Len(t, view.Quiz.Questions[0].Options, 3)
}

func TestStartRejectsSecondConcurrentSession(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, _ := newSessionFixture(t, fr)

	_, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	assert.ErrorIs(t, err, util.ErrSessionActive)
}

func TestRecordAnswerOnlyWhileActive(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, _ := newSessionFixture(t, fr)

	err := svc.RecordAnswer("s-1", 0, "B")
	assert.ErrorIs(t, err, util.ErrNoActiveSession)

	_, err = svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)

	require.NoError(t, svc.RecordAnswer("s-1", 0, "A"))
	// overwriting a prior value is allowed
	require.NoError(t, svc.RecordAnswer("s-1", 0, "B"))

	_, err = svc.Submit(context.Background(), "s-1", true)
	require.NoError(t, err)

	err = svc.RecordAnswer("s-1", 1, "too late")
	assert.ErrorIs(t, err, util.ErrAttemptFrozen)
}

func TestTimeoutAutoSubmitsExactlyOnce(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, _ := newSessionFixture(t, fr)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := start
	svc.now = func() time.Time { return clock }

	_, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)

	require.NoError(t, svc.RecordAnswer("s-1", 0, "B"))
	require.NoError(t, svc.RecordAnswer("s-1", 1, "It pulls things down."))

	// a few extra ticks after expiry must not fire a second submission
	for i := 0; i < 35; i++ {
		clock = clock.Add(time.Second)
		svc.Tick("s-1")
	}

	assert.Equal(t, 1, fr.submittedCount())

	view, err := svc.View("s-1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, view.State)
	require.NotNil(t, view.Attempt)
	assert.Equal(t, 5, view.Attempt.Score)
	assert.Equal(t, 10, view.Attempt.TotalMarks)
	assert.Equal(t, 30, view.Attempt.TimeTaken)
	assert.True(t, view.Attempt.Completed)
	require.NotNil(t, view.Attempt.CompletedAt)
}

func TestManualAndTimeoutSubmitProduceOneScore(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, _ := newSessionFixture(t, fr)

	_, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)
	require.NoError(t, svc.RecordAnswer("s-1", 0, "B"))

	first, err := svc.Submit(context.Background(), "s-1", true)
	require.NoError(t, err)

	// the second call is a no-op, not an error
	second, err := svc.Submit(context.Background(), "s-1", false)
	require.NoError(t, err)

	assert.Equal(t, 1, fr.submittedCount())
	assert.Equal(t, first.Attempt.ID, second.Attempt.ID)
	assert.Equal(t, first.Attempt.Score, second.Attempt.Score)
}

func TestSubmitOfflineCompletesAndQueues(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, syncSvc := newSessionFixture(t, fr)

	_, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)
	require.NoError(t, svc.RecordAnswer("s-1", 0, "b ")) // trimmed, case-insensitive

	fr.setFailSubmit(true)

	view, err := svc.Submit(context.Background(), "s-1", true)
	require.NoError(t, err, "delivery failure must never surface to the student")
	assert.Equal(t, StateCompleted, view.State)
	assert.Equal(t, 5, view.Attempt.Score)

	pending, err := syncSvc.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	// connectivity restored
	fr.setFailSubmit(false)

	delivered, err := syncSvc.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, fr.submittedCount())

	pending, err = syncSvc.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending)

	// re-running flush after success is a no-op
	delivered, err = syncSvc.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
}

func TestCancelDiscardsAttempt(t *testing.T) {
	fr := &fakeRemote{}
	fr.quiz, fr.questions = physicsQuiz(t)
	svc, syncSvc := newSessionFixture(t, fr)

	_, err := svc.Start(context.Background(), studentClaims("s-1"), "quiz-1")
	require.NoError(t, err)
	require.NoError(t, svc.RecordAnswer("s-1", 0, "B"))

	require.NoError(t, svc.Cancel("s-1"))

	assert.Equal(t, 0, fr.submittedCount())
	pending, err := syncSvc.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending)

	// terminal like Completed
	err = svc.Cancel("s-1")
	assert.ErrorIs(t, err, util.ErrSessionNotActive)
	_, err = svc.Submit(context.Background(), "s-1", true)
	assert.ErrorIs(t, err, util.ErrSessionNotActive)
}

func TestScoreAttempt(t *testing.T) {
	questions := []model.Question{
		{Kind: model.MultipleChoice, CorrectAnswer: "B", Marks: 5, Order: 0},
		{Kind: model.TrueFalse, CorrectAnswer: "true", Marks: 2, Order: 1},
		{Kind: model.ShortAnswer, Marks: 5, Order: 2},
	}

	cases := []struct {
		name    string
		answers map[int]string
		want    int
	}{
		{"all correct", map[int]string{0: "B", 1: "true", 2: "essay text"}, 7},
		{"case and whitespace ignored", map[int]string{0: " b ", 1: "TRUE"}, 7},
		{"wrong choice", map[int]string{0: "A", 1: "false"}, 0},
		{"unanswered contributes nothing", map[int]string{1: "true"}, 2},
		{"short answer never auto-scores", map[int]string{2: "anything"}, 0},
		{"empty", map[int]string{}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scoreAttempt(questions, tc.answers))
		})
	}
}

func TestScoreNeverExceedsTotalMarks(t *testing.T) {
	_, questions := physicsQuiz(t)
	total := 0
	for _, q := range questions {
		total += q.Marks
	}

	score := scoreAttempt(questions, map[int]string{0: "B", 1: "short answer text"})
	assert.LessOrEqual(t, score, total)
	// equality only when every answerable question is correct; the short
	// answer keeps full marks out of reach for automatic scoring
	assert.Equal(t, 5, score)
}
