package model

import (
	"encoding/json"
	"time"
)

type QuizDifficulty string

const (
	Easy   QuizDifficulty = "easy"
	Medium QuizDifficulty = "medium"
	Hard   QuizDifficulty = "hard"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
	// Mixed 仅用于生成请求，不会落库
	Mixed QuestionType = "mixed"
)

// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title         string         `gorm:"size:200;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	CourseID      string         `gorm:"index;type:varchar(36);not null" json:"courseId"`
	Course        *Course        `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	ScheduledAt   *time.Time     `json:"scheduledAt,omitempty"`
	Duration      int            `gorm:"default:30" json:"duration"` // 分钟
	Difficulty    QuizDifficulty `gorm:"size:20;default:'medium'" json:"difficulty"`
	IsAIGenerated bool           `gorm:"default:false" json:"isAiGenerated"`
	Questions     []Question     `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Question
type Question struct {
	UUIDBase
	Text          string          `gorm:"type:text;not null" json:"text"`
	Type          QuestionType    `gorm:"size:20;not null" json:"type"`
	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"` // 选择题选项，JSON 数组
	CorrectAnswer string          `gorm:"type:text;not null" json:"correctAnswer"`
	Explanation   string          `gorm:"type:text" json:"explanation"`
	Difficulty    QuizDifficulty  `gorm:"size:20;default:'medium'" json:"difficulty"`
	Points        int             `gorm:"default:1" json:"points"`
	Order         int             `gorm:"default:0" json:"order"`
	QuizID        string          `gorm:"index;type:varchar(36);not null" json:"quizId"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList 解析选项 JSON，解析失败返回空列表
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// QuizAttempt 一次完整的答题记录，同一 (user, quiz) 允许多次
// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	UserID      string       `gorm:"index;type:varchar(36);not null" json:"userId"`
	QuizID      string       `gorm:"index;type:varchar(36);not null" json:"quizId"`
	Quiz        *Quiz        `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	Score       float64      `gorm:"default:0" json:"score"`
	TotalPoints float64      `gorm:"default:0" json:"totalPoints"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Answers     []QuizAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// swagger:model QuizAnswer
type QuizAnswer struct {
	UUIDBase
	QuestionID string  `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Answer     string  `gorm:"type:text" json:"answer"`
	IsCorrect  bool    `gorm:"default:false" json:"isCorrect"`
	Points     float64 `gorm:"default:0" json:"points"`
	AttemptID  string  `gorm:"index;type:varchar(36);not null" json:"attemptId"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
