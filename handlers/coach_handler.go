package handlers

import (
	"context"
	"net/http"
	"time"

	"habitQuestAPI/middleware"
	"habitQuestAPI/services"
)

type CoachHandler struct {
	coachService   *services.CoachService
	insightService *services.InsightService
}

func NewCoachHandler(coachService *services.CoachService, insightService *services.InsightService) *CoachHandler {
	return &CoachHandler{
		coachService:   coachService,
		insightService: insightService,
	}
}

// Analyze may call the remote model, so it gets a longer deadline than
// the usual 5 seconds.
func (h *CoachHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	report, err := h.coachService.Analyze(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

func (h *CoachHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	insights, err := h.insightService.GetInsights(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, insights)
}
