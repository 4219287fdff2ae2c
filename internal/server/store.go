package server

import (
	"errors"

	"quiz-night/internal/db"
)

// Store errors. The engine maps these onto the API error taxonomy.
var (
	// ErrRecordNotFound is returned when a keyed lookup matches no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a uniqueness constraint
	// that the engine treats as a hard reject (quiz answers).
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence collaborator. Uniqueness and atomic
// upsert/insert-with-reject are pushed onto the store's key constraints;
// the engine never locks in-process. Handlers re-read current state through
// the store on every request.
type Store interface {
	CreateSession(session *db.Session) error
	SessionByCode(code string) (*db.Session, error)
	SaveSession(session *db.Session) error

	CreatePlayer(player *db.Player) error
	PlayerByID(id uint) (*db.Player, error)
	Players(sessionID uint) ([]db.Player, error)
	SavePlayerScore(playerID uint, score int) error

	CreateQuestions(questions []db.Question) error
	Questions(sessionID uint) ([]db.Question, error)
	QuestionByID(id uint) (*db.Question, error)

	// UpsertAnswer inserts or, on a (question, player) collision,
	// overwrites the answer text. Last write wins.
	UpsertAnswer(answer *db.Answer) error
	AnswersForQuestion(questionID uint) ([]db.Answer, error)
	AnswersForSession(sessionID uint) ([]db.Answer, error)

	CreateQuizQuestions(questions []db.QuizQuestion) error
	QuizQuestions(sessionID uint) ([]db.QuizQuestion, error)
	QuizQuestionByID(id uint) (*db.QuizQuestion, error)

	// CreateQuizAnswer returns ErrDuplicate when a row for the same
	// (question, player) pair already exists.
	CreateQuizAnswer(answer *db.QuizAnswer) error
	QuizAnswerFor(quizQuestionID, playerID uint) (*db.QuizAnswer, error)
	QuizAnswersForQuestion(quizQuestionID uint) ([]db.QuizAnswer, error)

	AppendEvent(event *db.Event) error
	Events(sessionID uint) ([]db.Event, error)
}
