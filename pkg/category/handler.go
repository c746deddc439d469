package category

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pocketplan/pocketplan/internal/rest"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

type CategoryDTO struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Kind  string `json:"kind"`
}

type RemovalDTO struct {
	PlansDeleted        int `json:"plansDeleted"`
	TransactionsDeleted int `json:"transactionsDeleted"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List categories
// @Description List the current user's categories, optionally filtered by kind
// @Tags Category
// @Produce json
// @Param kind query string false "income or expense"
// @Success 200 {array} CategoryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid kind"
// @Router /api/category [get]
// @Security Bearer
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kind := Kind("")
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, err := ParseKind(raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid kind", err.Error())
			return
		}
		kind = parsed
	}
	categories, err := h.service.ListAll(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, toDTO(c))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Get godoc
// @Summary Get category
// @Tags Category
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} CategoryDTO
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Router /api/category/{id} [get]
// @Security Bearer
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(c))
}

// Create godoc
// @Summary Create category
// @Tags Category
// @Accept json
// @Produce json
// @Param category body CategoryDTO true "Category"
// @Success 201 {object} CategoryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/category [post]
// @Security Bearer
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	kind, err := ParseKind(dto.Kind)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), Category{
		Name:  dto.Name,
		Color: dto.Color,
		Icon:  dto.Icon,
		Kind:  kind,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toDTO(created))
}

// Update godoc
// @Summary Update category
// @Description Change name, color and icon. The kind cannot be changed.
// @Tags Category
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param category body CategoryDTO true "Category"
// @Success 200 {object} CategoryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Router /api/category/{id} [put]
// @Security Bearer
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	var dto CategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	updated, err := h.service.Update(r.Context(), Category{
		Id:    id,
		Name:  dto.Name,
		Color: dto.Color,
		Icon:  dto.Icon,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(updated))
}

// Delete godoc
// @Summary Delete category
// @Description Deletes the category together with its plans and transactions
// @Tags Category
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} RemovalDTO
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Router /api/category/{id} [delete]
// @Security Bearer
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	removal, err := h.service.Remove(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, RemovalDTO{
		PlansDeleted:        removal.PlansDeleted,
		TransactionsDeleted: removal.TransactionsDeleted,
	})
}

func pathId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid category ID", "")
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	if verr, ok := validation.As(err); ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid category", verr.Error())
		return
	}
	switch {
	case errors.Is(err, ErrCategoryNotFound):
		rest.WriteError(w, http.StatusNotFound, "Category not found", "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
	default:
		log.Errorf("category request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func toDTO(c Category) CategoryDTO {
	return CategoryDTO{
		Id:    c.Id,
		Name:  c.Name,
		Color: c.Color,
		Icon:  c.Icon,
		Kind:  string(c.Kind),
	}
}
