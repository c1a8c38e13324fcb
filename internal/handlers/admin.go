package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/coursekit/apiserver/internal/services"
	"github.com/coursekit/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

// AdminHandler provides account administration endpoints.
type AdminHandler struct {
	authService *services.AuthService
}

// NewAdminHandler constructs a handler with the provided dependencies.
func NewAdminHandler(authService *services.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// AdminRouter registers admin routes on the given router. All routes run
// behind the session + admin middleware.
func AdminRouter(r chi.Router, handler *AdminHandler, requireSession, requireAdmin func(http.Handler) http.Handler) {
	r.Use(requireSession, requireAdmin)
	r.Delete("/users/{userID}", handler.DeleteUser)
	r.Put("/users/{userID}/purchase", handler.SetPurchase)
}

// DeleteUser removes an account. Its sessions are cascade-deleted.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.authService.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setPurchaseRequest struct {
	HasPurchased json.RawMessage `json:"hasPurchased"`
}

// SetPurchase flips the has-purchased flag. The checkout flow itself lives
// outside this service; this is the administrative override.
func (h *AdminHandler) SetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req setPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var purchased bool
	if isJSONNull(req.HasPurchased) || json.Unmarshal(req.HasPurchased, &purchased) != nil {
		writeError(w, http.StatusBadRequest, "hasPurchased must be a boolean")
		return
	}

	if err := h.authService.SetHasPurchased(r.Context(), id, purchased); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasPurchased": purchased})
}

func parseUserID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
