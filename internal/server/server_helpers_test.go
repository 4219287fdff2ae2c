package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func createSession(t *testing.T, ts *httptest.Server, hostName string) (string, int) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]string{
		"name": hostName,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	session := body["session"].(map[string]any)
	player := body["player"].(map[string]any)
	return session["join_code"].(string), int(player["id"].(float64))
}

func joinPlayer(t *testing.T, ts *httptest.Server, code, name string) int {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/join", map[string]string{
		"name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player := body["player"].(map[string]any)
	return int(player["id"].(float64))
}

func startSession(t *testing.T, ts *httptest.Server, code string, hostID int) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/start", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func generateQuestions(t *testing.T, ts *httptest.Server, code string, hostID int) []map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/questions", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	raw := body["questions"].([]any)
	questions := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		questions = append(questions, entry.(map[string]any))
	}
	return questions
}

func submitIcebreakerAnswer(t *testing.T, ts *httptest.Server, code string, playerID, questionID int, text string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/answers", map[string]any{
		"player_id":   playerID,
		"question_id": questionID,
		"text":        text,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func advanceSession(t *testing.T, ts *httptest.Server, code string, hostID int, action string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/advance", map[string]any{
		"player_id": hostID,
		"action":    action,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance %s: expected status %d, got %d", action, http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func advanceQuiz(t *testing.T, ts *httptest.Server, code string, hostID int, action string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/quiz/advance", map[string]any{
		"player_id": hostID,
		"action":    action,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quiz advance %s: expected status %d, got %d", action, http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, code string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/"+code, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["session"].(map[string]any)
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
