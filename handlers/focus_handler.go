package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"habitQuestAPI/internal/focus"
	"habitQuestAPI/middleware"
	"habitQuestAPI/services"
)

type FocusHandler struct {
	focusService *services.FocusService
}

func NewFocusHandler(focusService *services.FocusService) *FocusHandler {
	return &FocusHandler{
		focusService: focusService,
	}
}

func (h *FocusHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req focus.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DurationMinutes < 1 {
		respondWithError(w, http.StatusBadRequest, "Duration must be at least 1 minute")
		return
	}
	if req.Category != "" && !focus.ValidCategory(req.Category) {
		respondWithError(w, http.StatusBadRequest, "Unknown category")
		return
	}

	session, err := h.focusService.StartSession(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, session)
}

func (h *FocusHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	result, err := h.focusService.CompleteSession(ctx, clerkID, sessionID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *FocusHandler) GetActiveSessions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.focusService.GetActiveSessions(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sessions)
}
