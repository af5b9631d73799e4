package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"habitQuestAPI/internal/settings"
	"habitQuestAPI/middleware"
	"habitQuestAPI/services"
)

type AdminHandler struct {
	adminService *services.AdminService
	userService  *services.UserService
}

func NewAdminHandler(adminService *services.AdminService, userService *services.UserService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		userService:  userService,
	}
}

// requireAdmin gates on the ADMIN_CLERK_IDS allowlist. With the list
// unset nobody is an admin.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, ctx context.Context) (string, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return "", false
	}

	for _, id := range strings.Split(os.Getenv("ADMIN_CLERK_IDS"), ",") {
		if id != "" && strings.TrimSpace(id) == clerkID {
			return clerkID, true
		}
	}

	respondWithError(w, http.StatusForbidden, "Admin access required")
	return "", false
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.requireAdmin(w, ctx); !ok {
		return
	}

	list, err := h.adminService.GetSettings(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.requireAdmin(w, ctx); !ok {
		return
	}

	setting, err := h.adminService.GetSetting(ctx, mux.Vars(r)["key"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, setting)
}

func (h *AdminHandler) SetSetting(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := h.requireAdmin(w, ctx)
	if !ok {
		return
	}

	var req settings.SetSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Key == "" || len(req.Value) == 0 {
		respondWithError(w, http.StatusBadRequest, "Key and value are required")
		return
	}

	admin, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	setting, err := h.adminService.SetSetting(ctx, admin.ID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, setting)
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.requireAdmin(w, ctx); !ok {
		return
	}

	stats, err := h.adminService.GetStats(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
