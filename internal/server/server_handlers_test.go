package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"quiz-night/internal/db"
)

func TestGetSessionNotFound(t *testing.T) {
	_, ts := newQuizServer(t)
	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/NOPE42", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestJoinRejectedAfterStart(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/join", map[string]string{
		"name": "Late",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestJoinRejectedWhenFull(t *testing.T) {
	_, ts := newQuizServer(t)
	code, _ := createSession(t, ts, "Projector")
	for i := 0; i < 4; i++ {
		joinPlayer(t, ts, code, fmt.Sprintf("Player%d", i+1))
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/join", map[string]string{
		"name": "Fifth",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestJoinRejectsDuplicateName(t *testing.T) {
	_, ts := newQuizServer(t)
	code, _ := createSession(t, ts, "Projector")
	joinPlayer(t, ts, code, "Ann")

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/join", map[string]string{
		"name": "Ann",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestHostOnlyActions(t *testing.T) {
	_, ts := newQuizServer(t)
	code, _ := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")

	paths := []string{"/start", "/questions", "/quiz"}
	for _, path := range paths {
		resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+path, map[string]any{
			"player_id": annID,
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusForbidden, resp.StatusCode)
		}
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/advance", map[string]any{
		"player_id": annID,
		"action":    "next_question",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("advance: expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}
}

func TestGenerateRequiresStartedSession(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/questions", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestIcebreakerGenerationIsIdempotent(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)

	first := generateQuestions(t, ts, code, hostID)
	second := generateQuestions(t, ts, code, hostID)
	if len(first) != len(second) {
		t.Fatalf("expected the same question set, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i]["id"] != second[i]["id"] || first[i]["text"] != second[i]["text"] {
			t.Fatalf("question %d changed between generations", i+1)
		}
	}
}

func TestIcebreakerGenerationFallsBack(t *testing.T) {
	srv, ts := newQuizServer(t)
	srv.generator = &stubGenerator{err: errors.New("model unavailable")}

	code, hostID := createSession(t, ts, "Projector")
	joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)

	questions := generateQuestions(t, ts, code, hostID)
	if len(questions) != 3 {
		t.Fatalf("expected 3 fallback questions, got %d", len(questions))
	}
	for i, question := range questions {
		if question["text"] != fallbackIcebreakers[i] {
			t.Fatalf("question %d: expected fallback text, got %v", i+1, question["text"])
		}
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	questionID := int(questions[0]["id"].(float64))

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/answers", map[string]any{
		"player_id":   annID,
		"question_id": questionID,
		"text":        "   ",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank answer: expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/answers", map[string]any{
		"player_id":   annID,
		"question_id": 99999,
		"text":        "tacos",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown question: expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestIcebreakerAnswerOverwrites(t *testing.T) {
	srv, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	questionID := int(questions[0]["id"].(float64))

	submitIcebreakerAnswer(t, ts, code, annID, questionID, "tacos")
	submitIcebreakerAnswer(t, ts, code, annID, questionID, "actually, ramen")

	answers, err := srv.store.AnswersForQuestion(uint(questionID))
	if err != nil {
		t.Fatalf("load answers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("expected a single answer row after resubmission, got %d", len(answers))
	}
	if answers[0].Text != "actually, ramen" {
		t.Fatalf("expected the later answer to win, got %q", answers[0].Text)
	}
}

func TestQuizGenerationRequiresAnswers(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	for range questions {
		advanceSession(t, ts, code, hostID, "next_question")
	}

	// Quiz phase reached, but nobody answered anything.
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Fatalf("no answers: expected status %d, got %d", http.StatusPreconditionFailed, resp.StatusCode)
	}
}

func TestQuizGenerationRequiresQuizPhase(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)

	// Before icebreakers exist the session sits in the lobby phase.
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("lobby: expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	questions := generateQuestions(t, ts, code, hostID)
	submitIcebreakerAnswer(t, ts, code, annID, int(questions[0]["id"].(float64)), "tacos")

	// Answers exist, but the icebreaker round is still on question 1.
	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("asking: expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
	snapshot := fetchSnapshot(t, ts, code)
	if snapshot["phase"] != db.PhaseAsking {
		t.Fatalf("expected the session to stay in asking, got %v", snapshot["phase"])
	}

	advanceSession(t, ts, code, hostID, "show_answers")
	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("showing_answers: expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestQuizGenerationIsIdempotent(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	submitIcebreakerAnswer(t, ts, code, annID, int(questions[0]["id"].(float64)), "tacos")
	for range questions {
		advanceSession(t, ts, code, hostID, "next_question")
	}

	generate := func() []map[string]any {
		resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
			"player_id": hostID,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("quiz generation: expected status %d, got %d", http.StatusOK, resp.StatusCode)
		}
		raw := decodeBody(t, resp)["quiz_questions"].([]any)
		rows := make([]map[string]any, 0, len(raw))
		for _, entry := range raw {
			rows = append(rows, entry.(map[string]any))
		}
		return rows
	}

	first := generate()
	second := generate()
	if len(first) != 2 || len(second) != len(first) {
		t.Fatalf("expected the same 2 questions both times, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i]["id"] != second[i]["id"] || first[i]["text"] != second[i]["text"] {
			t.Fatalf("quiz question %d changed between generations", i+1)
		}
	}
}

func TestQuizAnswerRejectsBadLabel(t *testing.T) {
	srv, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	submitIcebreakerAnswer(t, ts, code, annID, int(questions[0]["id"].(float64)), "tacos")
	for range questions {
		advanceSession(t, ts, code, hostID, "next_question")
	}
	doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})

	session, err := srv.store.SessionByCode(code)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	rows, err := srv.store.QuizQuestions(session.ID)
	if err != nil {
		t.Fatalf("load quiz questions: %v", err)
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz/answers", map[string]any{
		"player_id":        annID,
		"quiz_question_id": rows[0].ID,
		"selected_label":   "E",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestQuizAnswerDuplicateIsRejected(t *testing.T) {
	srv, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	submitIcebreakerAnswer(t, ts, code, annID, int(questions[0]["id"].(float64)), "tacos")
	for range questions {
		advanceSession(t, ts, code, hostID, "next_question")
	}
	doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})

	session, err := srv.store.SessionByCode(code)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	rows, err := srv.store.QuizQuestions(session.ID)
	if err != nil {
		t.Fatalf("load quiz questions: %v", err)
	}
	firstLabel := rows[0].CorrectLabel
	secondLabel := wrongLabel(firstLabel)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz/answers", map[string]any{
		"player_id":        annID,
		"quiz_question_id": rows[0].ID,
		"selected_label":   firstLabel,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first submission: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz/answers", map[string]any{
		"player_id":        annID,
		"quiz_question_id": rows[0].ID,
		"selected_label":   secondLabel,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second submission: expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	answer := body["answer"].(map[string]any)
	if answer["selected_label"] != firstLabel {
		t.Fatalf("expected the first submission to stand, got %v", answer["selected_label"])
	}
}

func TestQuizAnswerOnlyForOpenQuestion(t *testing.T) {
	srv, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	submitIcebreakerAnswer(t, ts, code, annID, int(questions[0]["id"].(float64)), "tacos")
	for range questions {
		advanceSession(t, ts, code, hostID, "next_question")
	}
	doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})

	session, err := srv.store.SessionByCode(code)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	rows, err := srv.store.QuizQuestions(session.ID)
	if err != nil {
		t.Fatalf("load quiz questions: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("expected at least 2 quiz questions, got %d", len(rows))
	}

	// Question 2 is not open yet.
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz/answers", map[string]any{
		"player_id":        annID,
		"quiz_question_id": rows[1].ID,
		"selected_label":   "A",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("future question: expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	advanceQuiz(t, ts, code, hostID, "show_results")

	// Question 1 closed at the reveal.
	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz/answers", map[string]any{
		"player_id":        annID,
		"quiz_question_id": rows[0].ID,
		"selected_label":   "A",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("revealed question: expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestAdvanceRejectsUnknownAction(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	generateQuestions(t, ts, code, hostID)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/advance", map[string]any{
		"player_id": hostID,
		"action":    "skip_ahead",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestShowResultsOutsideQuizQuestion(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz/advance", map[string]any{
		"player_id": hostID,
		"action":    "show_results",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestSnapshotHidesCorrectLabelUntilReveal(t *testing.T) {
	_, ts := newQuizServer(t)
	code, hostID := createSession(t, ts, "Projector")
	annID := joinPlayer(t, ts, code, "Ann")
	startSession(t, ts, code, hostID)
	questions := generateQuestions(t, ts, code, hostID)
	submitIcebreakerAnswer(t, ts, code, annID, int(questions[0]["id"].(float64)), "tacos")
	for range questions {
		advanceSession(t, ts, code, hostID, "next_question")
	}
	doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz", map[string]any{
		"player_id": hostID,
	})

	snapshot := fetchSnapshot(t, ts, code)
	quizQuestion := snapshot["quiz_question"].(map[string]any)
	if _, leaked := quizQuestion["correct_label"]; leaked {
		t.Fatalf("correct label leaked while answers are open")
	}

	advanceQuiz(t, ts, code, hostID, "show_results")

	snapshot = fetchSnapshot(t, ts, code)
	quizQuestion = snapshot["quiz_question"].(map[string]any)
	if _, revealed := quizQuestion["correct_label"]; !revealed {
		t.Fatalf("correct label missing after reveal")
	}
	if snapshot["phase"] != db.PhaseQuizResults {
		t.Fatalf("expected quiz_results phase, got %v", snapshot["phase"])
	}
}
