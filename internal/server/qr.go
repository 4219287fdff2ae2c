package server

import (
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// handleJoinQR renders a QR code for the session join link, for the host
// screen to display.
func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request, code string) {
	session, err := s.loadSession(code)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	joinURL := strings.TrimRight(s.cfg.BaseURL, "/") + "/join/" + session.Code
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
