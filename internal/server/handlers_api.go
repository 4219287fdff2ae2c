package server

import (
	"log"
	"net/http"

	"quiz-night/internal/db"
)

type createSessionRequest struct {
	Name string `json:"name"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type startRequest struct {
	PlayerID uint `json:"player_id"`
}

type generateRequest struct {
	PlayerID uint `json:"player_id"`
}

type answerRequest struct {
	PlayerID   uint   `json:"player_id"`
	QuestionID uint   `json:"question_id"`
	Text       string `json:"text"`
}

type advanceRequest struct {
	PlayerID uint   `json:"player_id"`
	Action   string `json:"action"`
}

type quizAnswerRequest struct {
	PlayerID       uint   `json:"player_id"`
	QuizQuestionID uint   `json:"quiz_question_id"`
	SelectedLabel  string `json:"selected_label"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, host, err := s.createSession(name)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	log.Printf("session created join_code=%s host=%s", session.Code, host.Name)
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session": snapshot,
		"player":  playerPayload(host, true),
	})
}

func (s *Server) handleSessionSubroutes(w http.ResponseWriter, r *http.Request) {
	code, segments, ok := parseSessionPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if questionID, ok := parseQuestionAnswersPath(segments); ok && r.Method == http.MethodGet {
		s.handleListAnswers(w, r, code, questionID)
		return
	}

	action := ""
	if len(segments) == 1 {
		action = segments[0]
	} else if len(segments) == 2 && segments[0] == "quiz" {
		action = "quiz/" + segments[1]
	} else if len(segments) != 0 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetSession(w, r, code)
		case "qr":
			s.handleJoinQR(w, r, code)
		case "events":
			s.handleEvents(w, r, code)
		case "questions":
			s.handleListQuestions(w, r, code)
		case "quiz":
			s.handleListQuizQuestions(w, r, code)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinSession(w, r, code)
		case "start":
			s.handleStartSession(w, r, code)
		case "questions":
			s.handleGenerateQuestions(w, r, code)
		case "answers":
			s.handleSubmitAnswer(w, r, code)
		case "advance":
			s.handleAdvanceIcebreaker(w, r, code)
		case "quiz":
			s.handleGenerateQuiz(w, r, code)
		case "quiz/answers":
			s.handleSubmitQuizAnswer(w, r, code)
		case "quiz/advance":
			s.handleAdvanceQuiz(w, r, code)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleGetSession is the polling fallback for clients without a live
// change-feed connection.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, code string) {
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": snapshot})
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request, code string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, player, err := s.joinSession(code, name)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	log.Printf("player joined join_code=%s player_id=%d name=%s", session.Code, player.ID, player.Name)
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": snapshot,
		"player":  playerPayload(player, true),
	})
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request, code string) {
	var req startRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == 0 {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	session, err := s.startSession(code, req.PlayerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": snapshot})
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request, code string) {
	var req generateRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == 0 {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	session, questions, err := s.generateIcebreakers(r.Context(), code, req.PlayerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	list := make([]map[string]any, 0, len(questions))
	for i := range questions {
		list = append(list, questionPayload(&questions[i]))
	}
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":   snapshot,
		"questions": list,
	})
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request, code string) {
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	questions, err := s.store.Questions(session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load questions")
		return
	}
	list := make([]map[string]any, 0, len(questions))
	for i := range questions {
		list = append(list, questionPayload(&questions[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": list})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request, code string) {
	var req answerRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == 0 || req.QuestionID == 0 {
		writeError(w, http.StatusBadRequest, "player_id, question_id and text are required")
		return
	}
	text, err := validateAnswerText(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	answer, err := s.submitAnswer(session, req.QuestionID, req.PlayerID, text)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer": map[string]any{
			"id":          answer.ID,
			"question_id": answer.QuestionID,
			"player_id":   answer.PlayerID,
			"text":        answer.Text,
		},
	})
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleListAnswers(w http.ResponseWriter, r *http.Request, code string, questionID uint) {
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	question, err := s.store.QuestionByID(questionID)
	if err != nil || question.SessionID != session.ID {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	answers, err := s.store.AnswersForQuestion(question.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load answers")
		return
	}
	players, err := s.store.Players(session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load players")
		return
	}
	names := make(map[uint]*db.Player, len(players))
	for i := range players {
		names[players[i].ID] = &players[i]
	}
	list := make([]map[string]any, 0, len(answers))
	for _, answer := range answers {
		entry := map[string]any{
			"id":        answer.ID,
			"player_id": answer.PlayerID,
			"text":      answer.Text,
		}
		if player, ok := names[answer.PlayerID]; ok {
			entry["player_name"] = player.Name
			entry["avatar_color"] = player.AvatarColor
		}
		list = append(list, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question": questionPayload(question),
		"answers":  list,
	})
}

func (s *Server) handleAdvanceIcebreaker(w http.ResponseWriter, r *http.Request, code string) {
	var req advanceRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == 0 || req.Action == "" {
		writeError(w, http.StatusBadRequest, "player_id and action are required")
		return
	}
	session, meta, err := s.advanceIcebreaker(code, req.PlayerID, req.Action)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	round := map[string]any{
		"number": meta.Number,
		"total":  meta.Total,
	}
	if meta.Question != nil {
		round["question"] = questionPayload(meta.Question)
	}
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": snapshot,
		"round":   round,
	})
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request, code string) {
	var req generateRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == 0 {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	session, questions, err := s.generateQuiz(r.Context(), code, req.PlayerID)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	list := make([]map[string]any, 0, len(questions))
	for i := range questions {
		list = append(list, quizQuestionPayload(&questions[i], false))
	}
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":        snapshot,
		"quiz_questions": list,
	})
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleListQuizQuestions(w http.ResponseWriter, r *http.Request, code string) {
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	questions, err := s.store.QuizQuestions(session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load quiz questions")
		return
	}
	revealAll := session.Phase == db.PhaseGameOver
	list := make([]map[string]any, 0, len(questions))
	for i := range questions {
		list = append(list, quizQuestionPayload(&questions[i], revealAll))
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz_questions": list})
}

func (s *Server) handleSubmitQuizAnswer(w http.ResponseWriter, r *http.Request, code string) {
	var req quizAnswerRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == 0 || req.QuizQuestionID == 0 {
		writeError(w, http.StatusBadRequest, "player_id, quiz_question_id and selected_label are required")
		return
	}
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	submission, err := s.submitQuizAnswer(session, req.QuizQuestionID, req.PlayerID, req.SelectedLabel)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	answerBody := map[string]any{
		"id":               submission.Answer.ID,
		"quiz_question_id": submission.Answer.QuizQuestionID,
		"player_id":        submission.Answer.PlayerID,
		"selected_label":   submission.Answer.SelectedLabel,
		"is_correct":       submission.Answer.IsCorrect,
	}
	if submission.AlreadyExist {
		// Conflict, but the first submission stands and is echoed back.
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "answer already submitted",
			"answer": answerBody,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":        answerBody,
		"is_correct":    submission.Answer.IsCorrect,
		"correct_label": submission.Question.CorrectLabel,
	})
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleAdvanceQuiz(w http.ResponseWriter, r *http.Request, code string) {
	var req advanceRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == 0 || req.Action == "" {
		writeError(w, http.StatusBadRequest, "player_id and action are required")
		return
	}
	session, result, err := s.advanceQuiz(code, req.PlayerID, req.Action)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	body := map[string]any{}
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	body["session"] = snapshot
	if req.Action == actionShowResults {
		body["results"] = map[string]any{
			"correct_label": result.CorrectLabel,
			"deltas":        result.Deltas,
		}
	} else {
		round := map[string]any{
			"number": result.Number,
			"total":  result.Total,
		}
		if result.Question != nil {
			round["quiz_question"] = quizQuestionPayload(result.Question, false)
		}
		body["round"] = round
	}
	writeJSON(w, http.StatusOK, body)
	s.broadcastSessionUpdate(session)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, code string) {
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	records, err := s.store.Events(session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	events := make([]map[string]any, 0, len(records))
	for _, record := range records {
		events = append(events, map[string]any{
			"id":         record.ID,
			"type":       record.Type,
			"player_id":  record.PlayerID,
			"created_at": record.CreatedAt,
			"payload":    record.Payload,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"join_code": session.Code,
		"events":    events,
	})
}
