package server

import (
	"errors"
	"log"

	"quiz-night/internal/db"
)

// submitAnswer upserts an icebreaker answer keyed by (question, player).
// Last write wins.
func (s *Server) submitAnswer(session *db.Session, questionID, playerID uint, text string) (*db.Answer, error) {
	question, err := s.store.QuestionByID(questionID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, errNotFound("question not found")
		}
		return nil, errInternal("failed to load question")
	}
	if question.SessionID != session.ID {
		return nil, errNotFound("question not found")
	}
	player, err := s.sessionPlayer(session, playerID)
	if err != nil {
		return nil, err
	}
	answer := &db.Answer{
		QuestionID: question.ID,
		PlayerID:   player.ID,
		Text:       text,
	}
	if err := s.store.UpsertAnswer(answer); err != nil {
		return nil, errInternal("failed to save answer")
	}
	s.recordEvent(session, &player.ID, "answer_submitted", eventPayload{QuestionNumber: question.Number})
	log.Printf("answer submitted join_code=%s player_id=%d question=%d", session.Code, player.ID, question.Number)
	return answer, nil
}

// quizSubmission is the quiz-answer response: the stored row plus the
// correct label, and whether the row already existed.
type quizSubmission struct {
	Answer       *db.QuizAnswer
	Question     *db.QuizQuestion
	AlreadyExist bool
}

// submitQuizAnswer validates the label, computes correctness, and inserts.
// Only the currently open quiz question accepts answers; a second submission
// for the same (question, player) pair is a hard reject and the existing row
// is returned untouched.
func (s *Server) submitQuizAnswer(session *db.Session, quizQuestionID, playerID uint, label string) (*quizSubmission, error) {
	if !isOptionLabel(label) {
		return nil, errBadRequest("selected label must be one of A, B, C, D")
	}
	question, err := s.store.QuizQuestionByID(quizQuestionID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, errNotFound("quiz question not found")
		}
		return nil, errInternal("failed to load quiz question")
	}
	if question.SessionID != session.ID {
		return nil, errNotFound("quiz question not found")
	}
	if session.Phase != db.PhaseQuizQuestion ||
		session.CurrentQuizQuestionID == nil ||
		*session.CurrentQuizQuestionID != question.ID {
		return nil, errConflict("quiz question is not open for answers")
	}
	player, err := s.sessionPlayer(session, playerID)
	if err != nil {
		return nil, err
	}
	answer := &db.QuizAnswer{
		QuizQuestionID: question.ID,
		PlayerID:       player.ID,
		SelectedLabel:  label,
		IsCorrect:      label == question.CorrectLabel,
	}
	if err := s.store.CreateQuizAnswer(answer); err != nil {
		if errors.Is(err, ErrDuplicate) {
			existing, lookupErr := s.store.QuizAnswerFor(question.ID, player.ID)
			if lookupErr != nil {
				return nil, errInternal("failed to load existing answer")
			}
			return &quizSubmission{Answer: existing, Question: question, AlreadyExist: true}, nil
		}
		return nil, errInternal("failed to save answer")
	}
	s.recordEvent(session, &player.ID, "quiz_answer_submitted", eventPayload{QuizQuestionOrder: question.QuestionOrder})
	log.Printf("quiz answer submitted join_code=%s player_id=%d question_order=%d correct=%t",
		session.Code, player.ID, question.QuestionOrder, answer.IsCorrect)
	return &quizSubmission{Answer: answer, Question: question}, nil
}
