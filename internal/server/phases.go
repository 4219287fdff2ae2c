package server

import (
	"errors"
	"log"
	"time"

	"quiz-night/internal/db"

	"github.com/google/uuid"
)

var optionLabels = []string{"A", "B", "C", "D"}

func isOptionLabel(label string) bool {
	for _, candidate := range optionLabels {
		if candidate == label {
			return true
		}
	}
	return false
}

func optionText(question *db.QuizQuestion, label string) string {
	switch label {
	case "A":
		return question.OptionA
	case "B":
		return question.OptionB
	case "C":
		return question.OptionC
	case "D":
		return question.OptionD
	}
	return ""
}

// roundMeta describes the icebreaker or quiz round position after an
// advance, for the host screen.
type roundMeta struct {
	Number   int
	Total    int
	Question *db.Question
}

func (s *Server) loadSession(code string) (*db.Session, error) {
	session, err := s.store.SessionByCode(code)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, errNotFound("session not found")
		}
		return nil, errInternal("failed to load session")
	}
	return session, nil
}

func (s *Server) sessionPlayer(session *db.Session, playerID uint) (*db.Player, error) {
	player, err := s.store.PlayerByID(playerID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, errNotFound("player not found")
		}
		return nil, errInternal("failed to load player")
	}
	if player.SessionID != session.ID {
		return nil, errNotFound("player not found")
	}
	return player, nil
}

func (s *Server) requireHost(session *db.Session, playerID uint) (*db.Player, error) {
	player, err := s.sessionPlayer(session, playerID)
	if err != nil {
		return nil, err
	}
	if !player.IsProjector {
		return nil, errForbidden("only the host can perform this action")
	}
	return player, nil
}

func (s *Server) createSession(hostName string) (*db.Session, *db.Player, error) {
	session := &db.Session{
		Status: db.StatusWaiting,
		Phase:  db.PhaseLobby,
	}
	for attempt := 0; ; attempt++ {
		session.Code = newJoinCode()
		err := s.store.CreateSession(session)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicate) && attempt < 4 {
			continue
		}
		return nil, nil, errInternal("failed to create session")
	}
	host := &db.Player{
		SessionID:   session.ID,
		Name:        hostName,
		IsProjector: true,
		AvatarColor: pickPlayerColor(0),
		Token:       uuid.NewString(),
		JoinedAt:    timeNowUTC(),
	}
	if err := s.store.CreatePlayer(host); err != nil {
		return nil, nil, errInternal("failed to create host player")
	}
	s.recordEvent(session, &host.ID, "session_created", eventPayload{JoinCode: session.Code, PlayerName: host.Name})
	return session, host, nil
}

func (s *Server) joinSession(code, name string) (*db.Session, *db.Player, error) {
	session, err := s.loadSession(code)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != db.StatusWaiting {
		return nil, nil, errConflict("session already started")
	}
	players, err := s.store.Players(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load players")
	}
	guests := 0
	for _, player := range players {
		if !player.IsProjector {
			guests++
		}
	}
	if guests >= s.cfg.MaxPlayers {
		return nil, nil, errConflict("session is full")
	}
	player := &db.Player{
		SessionID:   session.ID,
		Name:        name,
		AvatarColor: pickPlayerColor(len(players)),
		Token:       uuid.NewString(),
		JoinedAt:    timeNowUTC(),
	}
	if err := s.store.CreatePlayer(player); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, nil, errConflict("name already taken")
		}
		return nil, nil, errInternal("failed to join session")
	}
	s.recordEvent(session, &player.ID, "player_joined", eventPayload{PlayerName: player.Name})
	return session, player, nil
}

func (s *Server) startSession(code string, playerID uint) (*db.Session, error) {
	session, err := s.loadSession(code)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireHost(session, playerID); err != nil {
		return nil, err
	}
	if session.Status != db.StatusWaiting {
		return nil, errConflict("session already started")
	}
	session.Status = db.StatusPlaying
	if err := s.store.SaveSession(session); err != nil {
		return nil, errInternal("failed to start session")
	}
	s.recordEvent(session, &playerID, "session_started", eventPayload{Phase: session.Phase})
	log.Printf("session started join_code=%s", session.Code)
	return session, nil
}

// Icebreaker advance actions.
const (
	actionShowAnswers  = "show_answers"
	actionNextQuestion = "next_question"
	actionShowResults  = "show_results"
)

func (s *Server) advanceIcebreaker(code string, playerID uint, action string) (*db.Session, *roundMeta, error) {
	session, err := s.loadSession(code)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.requireHost(session, playerID); err != nil {
		return nil, nil, err
	}
	questions, err := s.store.Questions(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load questions")
	}
	total := len(questions)
	if total == 0 {
		return nil, nil, errPreconditionFailed("icebreaker questions have not been generated")
	}

	switch action {
	case actionShowAnswers:
		if session.Phase != db.PhaseAsking {
			return nil, nil, errConflict("answers can only be shown while asking")
		}
		session.Phase = db.PhaseShowingAnswers
	case actionNextQuestion:
		if session.Phase != db.PhaseAsking && session.Phase != db.PhaseShowingAnswers {
			return nil, nil, errConflict("cannot advance the icebreaker round in this phase")
		}
		next := session.CurrentQuestionNumber + 1
		if next > total {
			session.Phase = db.PhaseQuiz
			session.CurrentQuestionNumber = total
		} else {
			session.Phase = db.PhaseAsking
			session.CurrentQuestionNumber = next
			id := questions[next-1].ID
			session.CurrentQuestionID = &id
		}
	default:
		return nil, nil, errBadRequest("unknown action")
	}

	if err := s.store.SaveSession(session); err != nil {
		return nil, nil, errInternal("failed to advance session")
	}
	s.recordEvent(session, &playerID, "phase_advanced", eventPayload{Phase: session.Phase, Action: action})
	log.Printf("session advanced join_code=%s phase=%s question=%d", session.Code, session.Phase, session.CurrentQuestionNumber)

	meta := &roundMeta{Number: session.CurrentQuestionNumber, Total: total}
	for i := range questions {
		if session.CurrentQuestionID != nil && questions[i].ID == *session.CurrentQuestionID {
			meta.Question = &questions[i]
		}
	}
	return session, meta, nil
}

func (s *Server) advanceQuiz(code string, playerID uint, action string) (*db.Session, *quizRoundResult, error) {
	session, err := s.loadSession(code)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.requireHost(session, playerID); err != nil {
		return nil, nil, err
	}
	switch action {
	case actionShowResults:
		return s.showQuizResults(session, playerID)
	case actionNextQuestion:
		return s.nextQuizQuestion(session, playerID)
	default:
		return nil, nil, errBadRequest("unknown action")
	}
}

// quizRoundResult is the advance-quiz response body: score deltas with
// reasons on show_results, round position on next_question.
type quizRoundResult struct {
	Deltas       []ScoreDelta
	CorrectLabel string
	Number       int
	Total        int
	Question     *db.QuizQuestion
}

func (s *Server) showQuizResults(session *db.Session, playerID uint) (*db.Session, *quizRoundResult, error) {
	if session.Phase != db.PhaseQuizQuestion {
		return nil, nil, errConflict("no quiz question in progress")
	}
	if session.CurrentQuizQuestionID == nil {
		return nil, nil, errConflict("no quiz question in progress")
	}
	question, err := s.store.QuizQuestionByID(*session.CurrentQuizQuestionID)
	if err != nil {
		return nil, nil, errInternal("failed to load quiz question")
	}
	answers, err := s.store.QuizAnswersForQuestion(question.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load quiz answers")
	}
	players, err := s.store.Players(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load players")
	}
	roster := make([]db.Player, 0, len(players))
	for _, player := range players {
		if !player.IsProjector {
			roster = append(roster, player)
		}
	}

	// All deltas are computed before any score write.
	deltas := quizScoreDeltas(question, answers, roster)
	scores := make(map[uint]int, len(roster))
	for _, player := range roster {
		scores[player.ID] = player.Score
	}
	for i := range deltas {
		next := clampScore(scores[deltas[i].PlayerID] + deltas[i].Delta)
		deltas[i].Score = next
		if err := s.store.SavePlayerScore(deltas[i].PlayerID, next); err != nil {
			return nil, nil, errInternal("failed to apply scores")
		}
	}

	session.Phase = db.PhaseQuizResults
	if err := s.store.SaveSession(session); err != nil {
		return nil, nil, errInternal("failed to advance session")
	}
	s.recordEvent(session, &playerID, "results_shown", eventPayload{Phase: session.Phase, QuizQuestionOrder: question.QuestionOrder})
	log.Printf("quiz results shown join_code=%s question_order=%d", session.Code, question.QuestionOrder)
	return session, &quizRoundResult{
		Deltas:       deltas,
		CorrectLabel: question.CorrectLabel,
		Number:       session.CurrentQuizNumber,
		Question:     question,
	}, nil
}

func (s *Server) nextQuizQuestion(session *db.Session, playerID uint) (*db.Session, *quizRoundResult, error) {
	if session.Phase != db.PhaseQuizResults {
		return nil, nil, errConflict("quiz results are not being shown")
	}
	questions, err := s.store.QuizQuestions(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load quiz questions")
	}
	total := len(questions)
	result := &quizRoundResult{Total: total}

	next := session.CurrentQuizNumber + 1
	if next > total {
		session.Phase = db.PhaseGameOver
		session.Status = db.StatusFinished
		session.CurrentQuizNumber = total
		session.QuestionDeadline = nil
	} else {
		session.Phase = db.PhaseQuizQuestion
		session.CurrentQuizNumber = next
		id := questions[next-1].ID
		session.CurrentQuizQuestionID = &id
		deadline := timeNowUTC().Add(time.Duration(s.cfg.QuizAnswerSeconds) * time.Second)
		session.QuestionDeadline = &deadline
		result.Question = &questions[next-1]
	}
	result.Number = session.CurrentQuizNumber

	if err := s.store.SaveSession(session); err != nil {
		return nil, nil, errInternal("failed to advance session")
	}
	s.recordEvent(session, &playerID, "phase_advanced", eventPayload{Phase: session.Phase, Action: actionNextQuestion})
	log.Printf("session advanced join_code=%s phase=%s quiz_question=%d", session.Code, session.Phase, session.CurrentQuizNumber)
	return session, result, nil
}
