package server

import (
	"quiz-night/internal/db"
)

func playerPayload(player *db.Player, includeToken bool) map[string]any {
	payload := map[string]any{
		"id":           player.ID,
		"name":         player.Name,
		"is_projector": player.IsProjector,
		"score":        player.Score,
		"avatar_color": player.AvatarColor,
	}
	if includeToken {
		payload["token"] = player.Token
	}
	return payload
}

func questionPayload(question *db.Question) map[string]any {
	return map[string]any{
		"id":     question.ID,
		"number": question.Number,
		"text":   question.Text,
	}
}

// quizQuestionPayload hides the correct label unless the reveal already
// happened; clients never see it while answers are still open.
func quizQuestionPayload(question *db.QuizQuestion, revealCorrect bool) map[string]any {
	payload := map[string]any{
		"id":              question.ID,
		"order":           question.QuestionOrder,
		"about_player_id": question.AboutPlayerID,
		"text":            question.Text,
		"options": map[string]string{
			"A": question.OptionA,
			"B": question.OptionB,
			"C": question.OptionC,
			"D": question.OptionD,
		},
	}
	if revealCorrect {
		payload["correct_label"] = question.CorrectLabel
	}
	return payload
}

// sessionSnapshot is the payload pushed over the change feed and served to
// polling clients. It is rebuilt from the store on every call.
func (s *Server) sessionSnapshot(session *db.Session) (map[string]any, error) {
	players, err := s.store.Players(session.ID)
	if err != nil {
		return nil, err
	}
	playerList := make([]map[string]any, 0, len(players))
	for i := range players {
		playerList = append(playerList, playerPayload(&players[i], false))
	}

	snapshot := map[string]any{
		"join_code":               session.Code,
		"status":                  session.Status,
		"phase":                   session.Phase,
		"current_question_number": session.CurrentQuestionNumber,
		"current_quiz_number":     session.CurrentQuizNumber,
		"players":                 playerList,
	}
	if session.QuizStartedAt != nil {
		snapshot["quiz_started_at"] = session.QuizStartedAt
	}
	if session.QuestionDeadline != nil {
		snapshot["question_deadline"] = session.QuestionDeadline
	}

	questions, err := s.store.Questions(session.ID)
	if err != nil {
		return nil, err
	}
	snapshot["question_total"] = len(questions)
	if session.CurrentQuestionID != nil {
		for i := range questions {
			if questions[i].ID != *session.CurrentQuestionID {
				continue
			}
			payload := questionPayload(&questions[i])
			answers, err := s.store.AnswersForQuestion(questions[i].ID)
			if err != nil {
				return nil, err
			}
			payload["answer_count"] = len(answers)
			snapshot["question"] = payload
		}
	}

	quizQuestions, err := s.store.QuizQuestions(session.ID)
	if err != nil {
		return nil, err
	}
	snapshot["quiz_question_total"] = len(quizQuestions)
	if session.CurrentQuizQuestionID != nil {
		revealCorrect := session.Phase == db.PhaseQuizResults || session.Phase == db.PhaseGameOver
		for i := range quizQuestions {
			if quizQuestions[i].ID != *session.CurrentQuizQuestionID {
				continue
			}
			payload := quizQuestionPayload(&quizQuestions[i], revealCorrect)
			answers, err := s.store.QuizAnswersForQuestion(quizQuestions[i].ID)
			if err != nil {
				return nil, err
			}
			payload["answer_count"] = len(answers)
			snapshot["quiz_question"] = payload
		}
	}
	return snapshot, nil
}
