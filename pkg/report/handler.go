package report

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pocketplan/pocketplan/internal/rest"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/plan"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ProgressDTO struct {
	Percent *decimal.Decimal `json:"percent"`
	NoPlan  bool             `json:"noPlan"`
}

type CategorySummaryDTO struct {
	CategoryId   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Planned      decimal.Decimal `json:"planned"`
	Actual       decimal.Decimal `json:"actual"`
	Remaining    decimal.Decimal `json:"remaining"`
	Progress     ProgressDTO     `json:"progress"`
}

type AmountOnDTO struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type MonthlySummaryDTO struct {
	Kind           string               `json:"kind"`
	Period         string               `json:"period"`
	Categories     []CategorySummaryDTO `json:"categories"`
	Days           []AmountOnDTO        `json:"days"`
	TotalPlanned   decimal.Decimal      `json:"totalPlanned"`
	TotalActual    decimal.Decimal      `json:"totalActual"`
	TotalRemaining decimal.Decimal      `json:"totalRemaining"`
	Progress       ProgressDTO          `json:"progress"`
}

type AnnualSummaryDTO struct {
	Kind         string               `json:"kind"`
	Year         int                  `json:"year"`
	Months       []AmountOnDTO        `json:"months"`
	Categories   []CategorySummaryDTO `json:"categories"`
	TotalPlanned decimal.Decimal      `json:"totalPlanned"`
	TotalActual  decimal.Decimal      `json:"totalActual"`
	Progress     ProgressDTO          `json:"progress"`
}

type Handler struct {
	service     Service
	csvRenderer Renderer
}

func NewHandler(service Service, csvRenderer Renderer) *Handler {
	return &Handler{service: service, csvRenderer: csvRenderer}
}

// Monthly godoc
// @Summary Monthly report
// @Description Planned against actual amounts per category and daily totals for one month. Send Accept: text/csv for a CSV export.
// @Tags Report
// @Produce json
// @Produce text/csv
// @Param kind query string true "income or expense"
// @Param period query string true "Month as YYYY-MM"
// @Success 200 {object} MonthlySummaryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid kind or period"
// @Router /api/report/monthly [get]
// @Security Bearer
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	kind, err := category.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid kind", err.Error())
		return
	}
	period, err := plan.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period", err.Error())
		return
	}
	summary, err := h.service.MonthlySummary(r.Context(), kind, period)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := h.csvRenderer.RenderMonthly(summary)
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, "Failed to render report", "")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s-%s.csv"`, kind, plan.FormatPeriod(summary.Period)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv report: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, monthlyToDTO(summary))
}

// Annual godoc
// @Summary Annual report
// @Description Monthly totals and planned against actual amounts per category for one year
// @Tags Report
// @Produce json
// @Param kind query string true "income or expense"
// @Param year query int true "Year"
// @Success 200 {object} AnnualSummaryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid kind or year"
// @Router /api/report/annual [get]
// @Security Bearer
func (h *Handler) Annual(w http.ResponseWriter, r *http.Request) {
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
	summary, err := h.service.AnnualSummary(r.Context(), kind, year)
	if err != nil {
		writeError(w, err)
		return
	}

	months := make([]AmountOnDTO, 0, len(summary.Months))
	for _, m := range summary.Months {
		months = append(months, AmountOnDTO{Date: plan.FormatPeriod(m.Month), Amount: m.Amount})
	}
	rest.WriteJSON(w, http.StatusOK, AnnualSummaryDTO{
		Kind:         string(summary.Kind),
		Year:         summary.Year,
		Months:       months,
		Categories:   categoriesToDTO(summary.Categories),
		TotalPlanned: summary.TotalPlanned,
		TotalActual:  summary.TotalActual,
		Progress:     progressToDTO(summary.Progress),
	})
}

func writeError(w http.ResponseWriter, err error) {
	if verr, ok := validation.As(err); ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid report request", verr.Error())
		return
	}
	if errors.Is(err, user.ErrNoUser) {
		rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
		return
	}
	log.Errorf("report request failed: %v", err)
	rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
}

func monthlyToDTO(summary MonthlySummary) MonthlySummaryDTO {
	days := make([]AmountOnDTO, 0, len(summary.Days))
	for _, d := range summary.Days {
		days = append(days, AmountOnDTO{Date: d.Date.Format("2006-01-02"), Amount: d.Amount})
	}
	return MonthlySummaryDTO{
		Kind:           string(summary.Kind),
		Period:         plan.FormatPeriod(summary.Period),
		Categories:     categoriesToDTO(summary.Categories),
		Days:           days,
		TotalPlanned:   summary.TotalPlanned,
		TotalActual:    summary.TotalActual,
		TotalRemaining: summary.TotalRemaining,
		Progress:       progressToDTO(summary.Progress),
	}
}

func categoriesToDTO(categories []CategorySummary) []CategorySummaryDTO {
	dtos := make([]CategorySummaryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, CategorySummaryDTO{
			CategoryId:   c.CategoryId,
			CategoryName: c.CategoryName,
			Planned:      c.Planned,
			Actual:       c.Actual,
			Remaining:    c.Remaining,
			Progress:     progressToDTO(c.Progress),
		})
	}
	return dtos
}

func progressToDTO(p Progress) ProgressDTO {
	if p.NoPlan {
		return ProgressDTO{NoPlan: true}
	}
	percent := p.Percent
	return ProgressDTO{Percent: &percent}
}
