package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.PendingOperation{},
		&model.CacheEntry{},
		&model.CacheBucket{},
	); err != nil {
		t.Fatalf("migrate store: %v", err)
	}
	return db
}

var (
	errRemoteDown  = errors.New("remote unreachable")
	errQuizMissing = errors.New("quiz not found upstream")
)

// fakeRemote stands in for the hosted catalog/data service.
type fakeRemote struct {
	mu sync.Mutex

	quiz      *model.Quiz
	questions []model.Question

	failGet      bool
	failSubmit   bool
	failProgress bool
	failPing     bool

	submitted []model.Attempt
	progress  []model.ProgressRecord
}

func (f *fakeRemote) GetQuiz(ctx context.Context, id string) (*model.Quiz, []model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, nil, errRemoteDown
	}
	if f.quiz == nil || f.quiz.ID != id {
		return nil, nil, errQuizMissing
	}
	quiz := *f.quiz
	questions := make([]model.Question, len(f.questions))
	copy(questions, f.questions)
	return &quiz, questions, nil
}

func (f *fakeRemote) SubmitAttempt(ctx context.Context, attempt *model.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit {
		return errRemoteDown
	}
	f.submitted = append(f.submitted, *attempt)
	return nil
}

func (f *fakeRemote) UpdateProgress(ctx context.Context, record *model.ProgressRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failProgress {
		return errRemoteDown
	}
	f.progress = append(f.progress, *record)
	return nil
}

func (f *fakeRemote) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPing {
		return errRemoteDown
	}
	return nil
}

func (f *fakeRemote) submittedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func (f *fakeRemote) setFailSubmit(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSubmit = v
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}
