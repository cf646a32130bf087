package model

import (
	"encoding/json"
	"time"
)

// Attempt is one student's timed run through a quiz. The ID is generated
// locally when the session starts and is the upsert key on the remote side,
// so a queued submission delivered twice lands on the same row.
type Attempt struct {
	UUIDBase
	QuizID      string          `gorm:"index;type:varchar(36)" json:"quizId"`
	StudentID   string          `gorm:"index;type:varchar(36)" json:"studentId"`
	StartedAt   time.Time       `json:"startedAt"`
	Answers     json.RawMessage `gorm:"type:json" json:"answers"` // question order index -> submitted value, sparse
	Score       int             `gorm:"default:0" json:"score"`
	TotalMarks  int             `gorm:"default:0" json:"totalMarks"`
	TimeTaken   int             `gorm:"default:0" json:"timeTaken"` // seconds
	Completed   bool            `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

func (Attempt) TableName() string {
	return "attempt_in_progress"
}

func (a *Attempt) AnswerMap() map[int]string {
	answers := map[int]string{}
	if len(a.Answers) > 0 {
		json.Unmarshal(a.Answers, &answers)
	}
	return answers
}

func (a *Attempt) SetAnswers(answers map[int]string) {
	raw, _ := json.Marshal(answers)
	a.Answers = raw
}
