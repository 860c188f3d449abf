package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"lms-challenge-service/internal/app"
	"lms-challenge-service/internal/domain"
)

// LeaderboardHandler serves course rankings over REST and websocket.
type LeaderboardHandler struct {
	service  *app.LeaderboardService
	upgrader websocket.Upgrader
}

func NewLeaderboardHandler(service *app.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		service:  service,
		upgrader: newUpgrader(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ServeLeaderboard returns the ranked entries of a course.
func (h *LeaderboardHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "missing courseId")
		return
	}
	lb, err := h.service.Leaderboard(r.Context(), courseID)
	if err != nil {
		log.Printf("leaderboard %s: %v", courseID, err)
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, lb.Entries)
}

// ServeStanding returns one user's standing in a course.
func (h *LeaderboardHandler) ServeStanding(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	userID := r.URL.Query().Get("userId")
	if courseID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "missing courseId or userId")
		return
	}
	standing, err := h.service.CurrentUser(r.Context(), courseID, userID)
	if errors.Is(err, domain.ErrNotRanked) {
		writeError(w, http.StatusNotFound, "not ranked")
		return
	}
	if err != nil {
		log.Printf("standing %s/%s: %v", courseID, userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load standing")
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

// ServePowers lists the powers a player can pick before a challenge.
func ServePowers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Powers)
}

// ServeWS streams leaderboard updates for a course until the client leaves.
func (h *LeaderboardHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	if courseID == "" {
		http.Error(w, "missing courseId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), courseID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: lb}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerDone:
			return
		}
	}
}
