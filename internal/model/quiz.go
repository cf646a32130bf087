package model

import "encoding/json"

type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple_choice"
	TrueFalse      QuestionKind = "true_false"
	ShortAnswer    QuestionKind = "short_answer"
)

// Quiz rows are a read-only snapshot of the hosted catalog, cached in the
// local store so an attempt can start while offline.
type Quiz struct {
	UUIDBase
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	TimeLimit   int    `gorm:"default:0" json:"timeLimit"` // seconds
	TotalMarks  int    `gorm:"default:0" json:"totalMarks"`
}

func (Quiz) TableName() string {
	return "cached_quizzes"
}

type Question struct {
	UUIDBase
	QuizID        string          `gorm:"index;type:varchar(36)" json:"quizId"`
	Kind          QuestionKind    `gorm:"size:50;not null" json:"kind"`
	Text          string          `gorm:"type:text;not null" json:"text"`
	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"` // []QuestionOption, multiple_choice only
	CorrectAnswer string          `gorm:"type:text" json:"-"`                 // option key, or "true"/"false"; never sent to students
	Marks         int             `gorm:"default:1" json:"marks"`
	Order         int             `gorm:"default:0" json:"order"` // stable, unique per quiz
}

func (Question) TableName() string {
	return "cached_questions"
}

type QuestionOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

func (q *Question) OptionList() ([]QuestionOption, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}
