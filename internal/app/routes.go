package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pocketplan/pocketplan/internal/rest"
)

// NewRouter registers all API endpoints. Everything outside /api/auth requires a bearer token.
func NewRouter(deps *Dependencies) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Authentication
	public := r.PathPrefix("/api/auth").Subrouter()
	public.HandleFunc("/register", deps.AuthHandler.Register).Methods("POST")
	public.HandleFunc("/verify", deps.AuthHandler.Verify).Methods("POST")
	public.HandleFunc("/resend", deps.AuthHandler.ResendCode).Methods("POST")
	public.HandleFunc("/login", deps.AuthHandler.Login).Methods("POST")
	public.HandleFunc("/password/forgot", deps.AuthHandler.ForgotPassword).Methods("POST")
	public.HandleFunc("/password/reset", deps.AuthHandler.ResetPassword).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(bearerAuth(deps.AuthService))

	// User
	api.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	api.HandleFunc("/user/current", deps.UserHandler.UpdateUser).Methods("PUT")

	// Categories
	api.HandleFunc("/category", deps.CategoryHandler.List).Methods("GET")
	api.HandleFunc("/category", deps.CategoryHandler.Create).Methods("POST")
	api.HandleFunc("/category/{id:[0-9]+}", deps.CategoryHandler.Get).Methods("GET")
	api.HandleFunc("/category/{id:[0-9]+}", deps.CategoryHandler.Update).Methods("PUT")
	api.HandleFunc("/category/{id:[0-9]+}", deps.CategoryHandler.Delete).Methods("DELETE")

	// Plans
	api.HandleFunc("/plan/annual", deps.PlanHandler.GetAnnualSummary).Methods("GET")
	api.HandleFunc("/plan", deps.PlanHandler.GetForPeriod).Methods("GET")
	api.HandleFunc("/plan", deps.PlanHandler.SaveAll).Methods("PUT")

	// Transactions
	api.HandleFunc("/transactions", deps.TransactionHandler.Propose).Methods("POST")
	api.HandleFunc("/transactions/confirmed", deps.TransactionHandler.Confirm).Methods("POST")
	api.HandleFunc("/transactions/confirmed/{id:[0-9]+}", deps.TransactionHandler.ConfirmEdit).Methods("PUT")
	api.HandleFunc("/transactions", deps.TransactionHandler.List).Methods("GET")
	api.HandleFunc("/transactions/{id:[0-9]+}", deps.TransactionHandler.Get).Methods("GET")
	api.HandleFunc("/transactions/{id:[0-9]+}", deps.TransactionHandler.ProposeEdit).Methods("PUT")
	api.HandleFunc("/transactions/{id:[0-9]+}", deps.TransactionHandler.Delete).Methods("DELETE")

	// Reports
	api.HandleFunc("/report/monthly", deps.ReportHandler.Monthly).Methods("GET")
	api.HandleFunc("/report/annual", deps.ReportHandler.Annual).Methods("GET")

	return r
}
