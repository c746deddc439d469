package transaction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pocketplan/pocketplan/internal/event_bus"
	"github.com/pocketplan/pocketplan/internal/rest"
	"github.com/pocketplan/pocketplan/pkg/category"
	"github.com/pocketplan/pocketplan/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler() (*mux.Router, *RepositoryStub) {
	repo := NewRepositoryStub()
	repo.AddCategory(ownerId, groceries, category.Expense)
	repo.SetPlan(ownerId, groceries, march, money("100"))
	handler := NewHandler(NewService(repo, event_bus.NewEventBus()))

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), user.User{Id: ownerId})))
		})
	})
	router.HandleFunc("/api/transactions", handler.Propose).Methods("POST")
	router.HandleFunc("/api/transactions", handler.List).Methods("GET")
	router.HandleFunc("/api/transactions/confirmed", handler.Confirm).Methods("POST")
	router.HandleFunc("/api/transactions/{id:[0-9]+}", handler.ProposeEdit).Methods("PUT")
	router.HandleFunc("/api/transactions/{id:[0-9]+}", handler.Get).Methods("GET")
	router.HandleFunc("/api/transactions/{id:[0-9]+}", handler.Delete).Methods("DELETE")
	router.HandleFunc("/api/transactions/confirmed/{id:[0-9]+}", handler.ConfirmEdit).Methods("PUT")
	return router, repo
}

func send(router *mux.Router, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeOutcome(t *testing.T, w *httptest.ResponseRecorder) OutcomeDTO {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dto OutcomeDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	return dto
}

func TestHandler_TwoPhaseProtocol(t *testing.T) {
	// given
	router, _ := setupHandler()
	body := `{"category":10,"kind":"expense","amount":"150.00","date":"2025-03-12","description":"party"}`

	// when
	proposed := decodeOutcome(t, send(router, http.MethodPost, "/api/transactions", body))
	confirmed := decodeOutcome(t, send(router, http.MethodPost, "/api/transactions/confirmed", body))

	// then
	assert.Equal(t, OutcomeDTO{Status: "needs_confirmation", Reason: "Exceeds monthly limit"}, proposed)
	assert.Equal(t, "committed", confirmed.Status)
	assert.NotZero(t, confirmed.Id)

	w := send(router, http.MethodGet, "/api/transactions?kind=expense&from=2025-03-01&to=2025-03-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []TransactionDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "2025-03-12", listed[0].Date)
	assert.Equal(t, "150", listed[0].Amount.String())
}

func TestHandler_Edit(t *testing.T) {
	// given
	router, _ := setupHandler()
	created := decodeOutcome(t, send(router, http.MethodPost, "/api/transactions",
		`{"category":10,"kind":"expense","amount":70,"date":"2025-03-01"}`))
	require.Equal(t, "committed", created.Status)

	// when
	edited := decodeOutcome(t, send(router, http.MethodPut, "/api/transactions/1",
		`{"category":10,"kind":"expense","amount":95,"date":"2025-03-01"}`))
	overLimit := decodeOutcome(t, send(router, http.MethodPut, "/api/transactions/1",
		`{"category":10,"kind":"expense","amount":101,"date":"2025-03-01"}`))
	confirmed := decodeOutcome(t, send(router, http.MethodPut, "/api/transactions/confirmed/1",
		`{"category":10,"kind":"expense","amount":101,"date":"2025-03-01"}`))

	// then
	assert.Equal(t, OutcomeDTO{Status: "committed", Id: 1}, edited)
	assert.Equal(t, "needs_confirmation", overLimit.Status)
	assert.Equal(t, OutcomeDTO{Status: "committed", Id: 1}, confirmed)
}

func TestHandler_Errors(t *testing.T) {
	router, _ := setupHandler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/api/transactions", `{`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/transactions", `{"category":10,"kind":"expense","amount":1,"date":"12/03/2025"}`, http.StatusBadRequest},
		{"bad amount", http.MethodPost, "/api/transactions", `{"category":10,"kind":"expense","amount":"ten","date":"2025-03-01"}`, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/api/transactions", `{"category":10,"kind":"expense","amount":0,"date":"2025-03-01"}`, http.StatusBadRequest},
		{"kind mismatch", http.MethodPost, "/api/transactions", `{"category":10,"kind":"income","amount":1,"date":"2025-03-01"}`, http.StatusBadRequest},
		{"unknown category", http.MethodPost, "/api/transactions", `{"category":77,"kind":"expense","amount":1,"date":"2025-03-01"}`, http.StatusNotFound},
		{"unknown transaction edit", http.MethodPut, "/api/transactions/confirmed/55", `{"category":10,"kind":"expense","amount":1,"date":"2025-03-01"}`, http.StatusNotFound},
		{"unknown transaction", http.MethodGet, "/api/transactions/55", ``, http.StatusNotFound},
		{"bad filter", http.MethodGet, "/api/transactions?from=yesterday", ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			w := send(router, tt.method, tt.target, tt.body)

			// then
			assert.Equal(t, tt.status, w.Code)
			var body rest.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	// given
	router, _ := setupHandler()
	created := decodeOutcome(t, send(router, http.MethodPost, "/api/transactions/confirmed",
		`{"category":10,"kind":"expense","amount":1,"date":"2025-03-01"}`))

	// when
	w := send(router, http.MethodDelete, "/api/transactions/1", "")

	// then
	assert.Equal(t, 1, created.Id)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodGet, "/api/transactions/1", "").Code)
}
