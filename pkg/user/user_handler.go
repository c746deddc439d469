package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pocketplan/pocketplan/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Verified    bool   `json:"verified"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CurrentUser godoc
// @Summary Get current user
// @Description Retrieve the authenticated user's profile
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 {object} rest.ErrorResponse "Unauthenticated"
// @Router /api/user/current [get]
// @Security Bearer
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) {
			rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
			return
		}
		log.Errorf("failed to get current user: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to get current user", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(u))
}

// UpdateUser godoc
// @Summary Update current user
// @Description Change the authenticated user's display name
// @Tags User
// @Accept json
// @Produce json
// @Param user body object{displayName=string} true "Display name"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 401 {object} rest.ErrorResponse "Unauthenticated"
// @Router /api/user/current [put]
// @Security Bearer
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	updated, err := h.userService.UpdateDisplayName(r.Context(), body.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, ErrDisplayNameRequired):
			rest.WriteError(w, http.StatusBadRequest, "Display name is required", "")
		case errors.Is(err, ErrNoUser):
			rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
		default:
			log.Errorf("failed to update user: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Failed to update user", "")
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(updated))
}

func userToDTO(u User) UserDTO {
	return UserDTO{
		Uid:         u.Uid,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Verified:    u.Verified,
	}
}
