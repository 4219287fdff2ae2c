package server

import (
	"encoding/json"
	"log"

	"quiz-night/internal/db"

	"gorm.io/datatypes"
)

// eventPayload is the jsonb body of an audit event row.
type eventPayload struct {
	JoinCode          string `json:"join_code,omitempty"`
	PlayerName        string `json:"player_name,omitempty"`
	Phase             string `json:"phase,omitempty"`
	Action            string `json:"action,omitempty"`
	Count             int    `json:"count,omitempty"`
	QuestionNumber    int    `json:"question_number,omitempty"`
	QuizQuestionOrder int    `json:"quiz_question_order,omitempty"`
}

// recordEvent appends to the session's audit log. Event writes are
// best-effort: a failure is logged, never surfaced to the caller.
func (s *Server) recordEvent(session *db.Session, playerID *uint, eventType string, payload eventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("event marshal failed join_code=%s type=%s error=%v", session.Code, eventType, err)
		return
	}
	event := &db.Event{
		SessionID: session.ID,
		PlayerID:  playerID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
	}
	if err := s.store.AppendEvent(event); err != nil {
		log.Printf("event write failed join_code=%s type=%s error=%v", session.Code, eventType, err)
	}
}
