package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pocketplan/pocketplan/internal/rest"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type SubmissionDTO struct {
	CategoryId  int             `json:"category"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	ExistingId  int             `json:"existingId,omitempty"`
}

type OutcomeDTO struct {
	Status string `json:"status"`
	Id     int    `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type TransactionDTO struct {
	Id          int             `json:"id"`
	CategoryId  int             `json:"category"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Propose godoc
// @Summary Propose a transaction
// @Description Commits the transaction if the category's plan for the month allows it, otherwise asks for confirmation
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transaction body SubmissionDTO true "Transaction"
// @Success 200 {object} OutcomeDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Category not found"
// @Router /api/transactions [post]
// @Security Bearer
func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	submission, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	submission.Id = 0
	h.respond(w, r, submission, h.service.Propose)
}

// Confirm godoc
// @Summary Confirm a transaction
// @Description Commits the transaction without checking plans. existingId edits that transaction.
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transaction body SubmissionDTO true "Transaction"
// @Success 200 {object} OutcomeDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Category or transaction not found"
// @Router /api/transactions/confirmed [post]
// @Security Bearer
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	submission, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	h.respond(w, r, submission, h.service.Confirm)
}

// ProposeEdit godoc
// @Summary Propose a transaction edit
// @Tags Transaction
// @Accept json
// @Produce json
// @Param id path int true "Transaction ID"
// @Param transaction body SubmissionDTO true "Transaction"
// @Success 200 {object} OutcomeDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Category or transaction not found"
// @Router /api/transactions/{id} [put]
// @Security Bearer
func (h *Handler) ProposeEdit(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, h.service.Propose)
}

// ConfirmEdit godoc
// @Summary Confirm a transaction edit
// @Tags Transaction
// @Accept json
// @Produce json
// @Param id path int true "Transaction ID"
// @Param transaction body SubmissionDTO true "Transaction"
// @Success 200 {object} OutcomeDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Category or transaction not found"
// @Router /api/transactions/confirmed/{id} [put]
// @Security Bearer
func (h *Handler) ConfirmEdit(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, h.service.Confirm)
}

type submitFunc func(ctx context.Context, submission Submission) (Outcome, error)

func (h *Handler) edit(w http.ResponseWriter, r *http.Request, submit submitFunc) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	submission, ok := decodeSubmission(w, r)
	if !ok {
		return
	}
	submission.Id = id
	h.respond(w, r, submission, submit)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, submission Submission, submit submitFunc) {
	outcome, err := submit(r.Context(), submission)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, OutcomeDTO{
		Status: string(outcome.Status),
		Id:     outcome.Id,
		Reason: outcome.Reason,
	})
}

// List godoc
// @Summary List transactions
// @Tags Transaction
// @Produce json
// @Param kind query string false "income or expense"
// @Param category query int false "Category ID"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Router /api/transactions [get]
// @Security Bearer
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter Filter
	if raw := query.Get("kind"); raw != "" {
		kind, err := category.ParseKind(raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid kind", err.Error())
			return
		}
		filter.Kind = kind
	}
	if raw := query.Get("category"); raw != "" {
		categoryId, err := strconv.Atoi(raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid category", "")
			return
		}
		filter.CategoryId = categoryId
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid from date", "expected YYYY-MM-DD")
			return
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid to date", "expected YYYY-MM-DD")
			return
		}
		filter.To = to.AddDate(0, 0, 1)
	}

	transactions, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, toDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Get godoc
// @Summary Get transaction
// @Tags Transaction
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} TransactionDTO
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transactions/{id} [get]
// @Security Bearer
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(t))
}

// Delete godoc
// @Summary Delete transaction
// @Tags Transaction
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transactions/{id} [delete]
// @Security Bearer
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeSubmission(w http.ResponseWriter, r *http.Request) (Submission, bool) {
	var dto SubmissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return Submission{}, false
	}
	kind, err := category.ParseKind(dto.Kind)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction", "kind: must be income or expense")
		return Submission{}, false
	}
	date, err := time.Parse(dateLayout, dto.Date)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction", "date: must be YYYY-MM-DD")
		return Submission{}, false
	}
	return Submission{
		Id:          dto.ExistingId,
		CategoryId:  dto.CategoryId,
		Kind:        kind,
		Amount:      dto.Amount,
		Date:        date,
		Description: dto.Description,
	}, true
}

func pathId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction ID", "")
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	if verr, ok := validation.As(err); ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction", verr.Error())
		return
	}
	switch {
	case errors.Is(err, ErrKindMismatch):
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction", "kind: "+err.Error())
	case errors.Is(err, category.ErrCategoryNotFound):
		rest.WriteError(w, http.StatusNotFound, "Category not found", "")
	case errors.Is(err, ErrTransactionNotFound):
		rest.WriteError(w, http.StatusNotFound, "Transaction not found", "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Authentication required", "")
	default:
		log.Errorf("transaction request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func toDTO(t Transaction) TransactionDTO {
	return TransactionDTO{
		Id:          t.Id,
		CategoryId:  t.CategoryId,
		Kind:        string(t.Kind),
		Amount:      t.Amount,
		Date:        t.Date.Format(dateLayout),
		Description: t.Description,
	}
}
