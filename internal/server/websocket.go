package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"quiz-night/internal/db"

	"github.com/gorilla/websocket"
)

// wsHub is the change-feed collaborator: per-session connection groups that
// receive a full snapshot after every mutation. Delivery is fire-and-forget
// and at-least-once; clients reconcile by primary key and fall back to
// polling GET /api/sessions/{code}.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
	hosts  map[string]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]struct{}),
		hosts:  make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(code string, conn *websocket.Conn, isHost bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[code]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[code] = group
	}
	group[conn] = struct{}{}
	if isHost {
		hostGroup := h.hosts[code]
		if hostGroup == nil {
			hostGroup = make(map[*websocket.Conn]struct{})
			h.hosts[code] = hostGroup
		}
		hostGroup[conn] = struct{}{}
	}
}

func (h *wsHub) Remove(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[code]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, code)
	}
	if hostGroup := h.hosts[code]; hostGroup != nil {
		delete(hostGroup, conn)
		if len(hostGroup) == 0 {
			delete(h.hosts, code)
		}
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(code string, payload any) {
	h.mu.Lock()
	group := h.groups[code]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(code, conn)
		}
	}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	code, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	isHost := false
	if token := r.URL.Query().Get("token"); token != "" {
		players, err := s.store.Players(session.ID)
		if err == nil {
			for _, player := range players {
				if player.IsProjector && player.Token == token {
					isHost = true
				}
			}
		}
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.ws.Add(session.Code, conn, isHost)
	log.Printf("websocket connected join_code=%s host=%t", session.Code, isHost)

	if snapshot, err := s.sessionSnapshot(session); err == nil {
		s.ws.Send(conn, map[string]any{"type": "session_update", "session": snapshot})
	}

	go func() {
		defer s.ws.Remove(session.Code, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcastSessionUpdate pushes the current snapshot to every subscriber of
// the session. Redelivery of identical snapshots is fine.
func (s *Server) broadcastSessionUpdate(session *db.Session) {
	snapshot, err := s.sessionSnapshot(session)
	if err != nil {
		log.Printf("snapshot build failed join_code=%s error=%v", session.Code, err)
		return
	}
	s.ws.Broadcast(session.Code, map[string]any{
		"type":    "session_update",
		"session": snapshot,
	})
}
