package db

import (
	"time"

	"gorm.io/datatypes"
)

// Session statuses.
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Session phases, in game order. The asking/showing_answers and
// quiz_question/quiz_results pairs repeat once per question in their rounds.
const (
	PhaseLobby          = "lobby"
	PhaseAsking         = "asking"
	PhaseShowingAnswers = "showing_answers"
	PhaseQuiz           = "quiz"
	PhaseQuizQuestion   = "quiz_question"
	PhaseQuizResults    = "quiz_results"
	PhaseGameOver       = "game_over"
)

type Session struct {
	ID                    uint       `gorm:"primaryKey"`
	Code                  string     `gorm:"size:12;uniqueIndex;not null"`
	Status                string     `gorm:"size:16;not null"`
	Phase                 string     `gorm:"size:32;not null"`
	CurrentQuestionNumber int        `gorm:"not null;default:0"`
	CurrentQuestionID     *uint      `gorm:"index"`
	CurrentQuizNumber     int        `gorm:"not null;default:0"`
	CurrentQuizQuestionID *uint      `gorm:"index"`
	QuizStartedAt         *time.Time ``
	QuestionDeadline      *time.Time ``
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             time.Time  `gorm:"not null"`
	Players               []Player   `gorm:"constraint:OnDelete:CASCADE"`
	Questions             []Question `gorm:"constraint:OnDelete:CASCADE"`
	Events                []Event    `gorm:"constraint:OnDelete:CASCADE"`
}

type Player struct {
	ID          uint      `gorm:"primaryKey"`
	SessionID   uint      `gorm:"index;not null;uniqueIndex:idx_players_session_name"`
	Name        string    `gorm:"size:64;not null;uniqueIndex:idx_players_session_name"`
	IsProjector bool      `gorm:"not null;default:false"`
	Score       int       `gorm:"not null;default:0"`
	AvatarColor string    `gorm:"size:16;not null"`
	Token       string    `gorm:"size:64;not null"`
	JoinedAt    time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// Question is an icebreaker question, numbered 1..n within its session.
type Question struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"index;not null;uniqueIndex:idx_questions_session_number"`
	Number    int       `gorm:"not null;uniqueIndex:idx_questions_session_number"`
	Text      string    `gorm:"size:280;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Answer is a free-text icebreaker answer. Resubmitting for the same
// (question, player) pair overwrites the text.
type Answer struct {
	ID         uint      `gorm:"primaryKey"`
	QuestionID uint      `gorm:"index;not null;uniqueIndex:idx_answers_question_player"`
	PlayerID   uint      `gorm:"index;not null;uniqueIndex:idx_answers_question_player"`
	Text       string    `gorm:"size:280;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type QuizQuestion struct {
	ID            uint      `gorm:"primaryKey"`
	SessionID     uint      `gorm:"index;not null;uniqueIndex:idx_quiz_questions_session_order"`
	AboutPlayerID uint      `gorm:"index;not null"`
	QuestionOrder int       `gorm:"not null;uniqueIndex:idx_quiz_questions_session_order"`
	Text          string    `gorm:"size:280;not null"`
	OptionA       string    `gorm:"size:140;not null"`
	OptionB       string    `gorm:"size:140;not null"`
	OptionC       string    `gorm:"size:140;not null"`
	OptionD       string    `gorm:"size:140;not null"`
	CorrectLabel  string    `gorm:"size:1;not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// QuizAnswer is a timed commitment: a second submission for the same
// (question, player) pair is rejected, never overwritten.
type QuizAnswer struct {
	ID             uint      `gorm:"primaryKey"`
	QuizQuestionID uint      `gorm:"index;not null;uniqueIndex:idx_quiz_answers_question_player"`
	PlayerID       uint      `gorm:"index;not null;uniqueIndex:idx_quiz_answers_question_player"`
	SelectedLabel  string    `gorm:"size:1;not null"`
	IsCorrect      bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID uint           `gorm:"index;not null"`
	PlayerID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
