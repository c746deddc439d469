package plan

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pocketplan/pocketplan/internal/rest"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type PlanDTO struct {
	Id           int             `json:"id"`
	CategoryId   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Period       string          `json:"period"`
}

type ItemDTO struct {
	CategoryId int             `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
}

type SaveRequestDTO struct {
	Items []ItemDTO `json:"items"`
}

type CategoryTotalDTO struct {
	CategoryId   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetForPeriod godoc
// @Summary Get plans of a month
// @Tags Plan
// @Produce json
// @Param kind query string true "income or expense"
// @Param period query string true "Month as YYYY-MM"
// @Success 200 {array} PlanDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid kind or period"
// @Router /api/plan [get]
// @Security Bearer
func (h *Handler) GetForPeriod(w http.ResponseWriter, r *http.Request) {
	kind, period, ok := kindAndPeriod(w, r)
	if !ok {
		return
	}
	plans, err := h.service.GetForPeriod(r.Context(), kind, period)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(plans))
}

// SaveAll godoc
// @Summary Replace plans of a month
// @Description Deletes every plan of the given kind and month, then stores the submitted items. An empty list clears the month.
// @Tags Plan
// @Accept json
// @Produce json
// @Param kind query string true "income or expense"
// @Param period query string true "Month as YYYY-MM"
// @Param plans body SaveRequestDTO true "Plan items"
// @Success 200 {array} PlanDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/plan [put]
// @Security Bearer
func (h *Handler) SaveAll(w http.ResponseWriter, r *http.Request) {
	kind, period, ok := kindAndPeriod(w, r)
	if !ok {
		return
	}
	var body SaveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	items := make([]Item, 0, len(body.Items))
	for _, item := range body.Items {
		items = append(items, Item{CategoryId: item.CategoryId, Amount: item.Amount})
	}
	plans, err := h.service.SaveAll(r.Context(), kind, period, items)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTOs(plans))
}

// GetAnnualSummary godoc
// @Summary Get yearly planned totals
// @Description Sums every month's plan per category for the given year
// @Tags Plan
// @Produce json
// @Param kind query string true "income or expense"
// @Param year query int true "Year"
// @Success 200 {array} CategoryTotalDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid kind or year"
// @Router /api/plan/annual [get]
// @Security Bearer
func (h *Handler) GetAnnualSummary(w http.ResponseWriter, r *http.Request) {
	kind, err := category.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid year", "")
		return
	}
	totals, err := h.service.GetAnnualSummary(r.Context(), kind, year)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]CategoryTotalDTO, 0, len(totals))
	for _, t := range totals {
		dtos = append(dtos, CategoryTotalDTO{CategoryId: t.CategoryId, CategoryName: t.CategoryName, Amount: t.Amount})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func kindAndPeriod(w http.ResponseWriter, r *http.Request) (category.Kind, time.Time, bool) {
	kind, err := category.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return "", time.Time{}, false
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period", err.Error())
		return "", time.Time{}, false
	}
	return kind, period, true
}

func writeError(w http.ResponseWriter, err error) {
	if verr, ok := validation.As(err); ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid plan", verr.Error())
		return
	}
	switch {
	case errors.Is(err, ErrInvalidPlanItem):
		rest.WriteError(w, http.StatusBadRequest, "Invalid plan", err.Error())
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
	default:
		log.Errorf("plan request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func toDTOs(plans []Plan) []PlanDTO {
	dtos := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		dtos = append(dtos, PlanDTO{
			Id:           p.Id,
			CategoryId:   p.CategoryId,
			CategoryName: p.CategoryName,
			Amount:       p.Amount,
			Period:       FormatPeriod(p.Period),
		})
	}
	return dtos
}
