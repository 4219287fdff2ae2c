package server

import (
	"errors"

	"quiz-night/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore is the Postgres-backed store. It is the source of truth: there
// is no in-memory session cache in front of it, so staleness windows are
// bounded by request latency.
type gormStore struct {
	conn *gorm.DB
}

func newGormStore(conn *gorm.DB) *gormStore {
	return &gormStore{conn: conn}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func translateLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

func (s *gormStore) CreateSession(session *db.Session) error {
	return s.conn.Create(session).Error
}

func (s *gormStore) SessionByCode(code string) (*db.Session, error) {
	var record db.Session
	if err := s.conn.Where("code = ?", code).First(&record).Error; err != nil {
		return nil, translateLookup(err)
	}
	return &record, nil
}

func (s *gormStore) SaveSession(session *db.Session) error {
	return s.conn.Save(session).Error
}

func (s *gormStore) CreatePlayer(player *db.Player) error {
	if err := s.conn.Create(player).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *gormStore) PlayerByID(id uint) (*db.Player, error) {
	var record db.Player
	if err := s.conn.First(&record, id).Error; err != nil {
		return nil, translateLookup(err)
	}
	return &record, nil
}

func (s *gormStore) Players(sessionID uint) ([]db.Player, error) {
	var records []db.Player
	if err := s.conn.Where("session_id = ?", sessionID).Order("joined_at asc, id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) SavePlayerScore(playerID uint, score int) error {
	return s.conn.Model(&db.Player{}).Where("id = ?", playerID).Update("score", score).Error
}

func (s *gormStore) CreateQuestions(questions []db.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return s.conn.Create(&questions).Error
}

func (s *gormStore) Questions(sessionID uint) ([]db.Question, error) {
	var records []db.Question
	if err := s.conn.Where("session_id = ?", sessionID).Order("number asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) QuestionByID(id uint) (*db.Question, error) {
	var record db.Question
	if err := s.conn.First(&record, id).Error; err != nil {
		return nil, translateLookup(err)
	}
	return &record, nil
}

func (s *gormStore) UpsertAnswer(answer *db.Answer) error {
	return s.conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(answer).Error
}

func (s *gormStore) AnswersForQuestion(questionID uint) ([]db.Answer, error) {
	var records []db.Answer
	if err := s.conn.Where("question_id = ?", questionID).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) AnswersForSession(sessionID uint) ([]db.Answer, error) {
	var records []db.Answer
	err := s.conn.
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.session_id = ?", sessionID).
		Order("answers.id asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) CreateQuizQuestions(questions []db.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return s.conn.Create(&questions).Error
}

func (s *gormStore) QuizQuestions(sessionID uint) ([]db.QuizQuestion, error) {
	var records []db.QuizQuestion
	if err := s.conn.Where("session_id = ?", sessionID).Order("question_order asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) QuizQuestionByID(id uint) (*db.QuizQuestion, error) {
	var record db.QuizQuestion
	if err := s.conn.First(&record, id).Error; err != nil {
		return nil, translateLookup(err)
	}
	return &record, nil
}

func (s *gormStore) CreateQuizAnswer(answer *db.QuizAnswer) error {
	if err := s.conn.Create(answer).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *gormStore) QuizAnswerFor(quizQuestionID, playerID uint) (*db.QuizAnswer, error) {
	var record db.QuizAnswer
	err := s.conn.Where("quiz_question_id = ? AND player_id = ?", quizQuestionID, playerID).First(&record).Error
	if err != nil {
		return nil, translateLookup(err)
	}
	return &record, nil
}

func (s *gormStore) QuizAnswersForQuestion(quizQuestionID uint) ([]db.QuizAnswer, error) {
	var records []db.QuizAnswer
	if err := s.conn.Where("quiz_question_id = ?", quizQuestionID).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *gormStore) AppendEvent(event *db.Event) error {
	return s.conn.Create(event).Error
}

func (s *gormStore) Events(sessionID uint) ([]db.Event, error) {
	var records []db.Event
	if err := s.conn.Where("session_id = ?", sessionID).Order("created_at asc, id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
