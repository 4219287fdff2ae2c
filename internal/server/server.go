package server

import (
	"net/http"

	"quiz-night/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store     Store
	ws        *wsHub
	cfg       config.Config
	generator QuestionGenerator
}

// New builds a server backed by Postgres when conn is non-nil, or by the
// in-memory store otherwise (tests, local runs without a database).
func New(conn *gorm.DB, cfg config.Config) *Server {
	var store Store
	if conn != nil {
		store = newGormStore(conn)
	} else {
		store = newMemStore()
	}
	return &Server{
		store:     store,
		ws:        newWSHub(),
		cfg:       cfg,
		generator: newOpenAIGenerator(cfg),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("POST /api/sessions/", s.handleSessionSubroutes)
	mux.HandleFunc("GET /ws/sessions/", s.handleWebsocket)
	return mux
}
