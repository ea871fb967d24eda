package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sebuszqo/ExpenseTracker/internal/auth"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/application"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	expenseErrors "github.com/sebuszqo/ExpenseTracker/internal/expense/errors"
)

const ExpenseIDParam = "expenseID"

type ExpenseServiceInterface interface {
	ListExpenses(ctx context.Context, ownerID string, params domain.FilterParams) (*domain.ExpensePage, error)
	SummarizeExpenses(ctx context.Context, ownerID string, params domain.FilterParams) (*domain.Summary, error)
	GetExpense(ctx context.Context, ownerID string, expenseID uuid.UUID) (*domain.Expense, error)
	CreateExpense(ctx context.Context, ownerID string, input application.CreateExpenseInput) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, ownerID string, expenseID uuid.UUID, input application.UpdateExpenseInput) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, ownerID string, expenseID uuid.UUID) error
	Categories() []domain.Category
}

type ExpenseHandler struct {
	service      ExpenseServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewExpenseHandler(
	service ExpenseServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *ExpenseHandler {
	return &ExpenseHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

// ListExpenses serves one filtered page. Query: category, startDate, endDate, page, limit.
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	page, err := h.service.ListExpenses(r.Context(), ownerID, domain.FilterParams{
		Category:  query.Get("category"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
		Page:      query.Get("page"),
		Limit:     query.Get("limit"),
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to retrieve expenses")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   page,
	})
}

// SummarizeExpenses reads only the date bounds. The category filter never narrows a summary.
func (h *ExpenseHandler) SummarizeExpenses(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()
	summary, err := h.service.SummarizeExpenses(r.Context(), ownerID, domain.FilterParams{
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to summarize expenses")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

func (h *ExpenseHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID, ok := pathUUID(r, ExpenseIDParam)
	if !ok {
		h.respondError(w, http.StatusNotFound, "Expense not found")
		return
	}

	expense, err := h.service.GetExpense(r.Context(), ownerID, expenseID)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to retrieve expense")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   expense,
	})
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input application.CreateExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := h.service.CreateExpense(r.Context(), ownerID, input)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to create expense")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Expense successfully created.",
		"data":    expense,
	})
}

func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID, ok := pathUUID(r, ExpenseIDParam)
	if !ok {
		h.respondError(w, http.StatusNotFound, "Expense not found")
		return
	}

	var input application.UpdateExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := h.service.UpdateExpense(r.Context(), ownerID, expenseID, input)
	if err != nil {
		h.handleServiceError(w, r, err, "Failed to update expense")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense successfully updated.",
		"data":    expense,
	})
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID, ok := pathUUID(r, ExpenseIDParam)
	if !ok {
		h.respondError(w, http.StatusNotFound, "Expense not found")
		return
	}

	if err := h.service.DeleteExpense(r.Context(), ownerID, expenseID); err != nil {
		h.handleServiceError(w, r, err, "Failed to delete expense")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense successfully deleted.",
		"data": map[string]string{
			"id": expenseID.String(),
		},
	})
}

func (h *ExpenseHandler) GetCategories(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   h.service.Categories(),
	})
}

// handleServiceError maps the service error taxonomy onto HTTP. Only infrastructure
// failures are logged; their details never reach the client.
func (h *ExpenseHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, failureMessage string) {
	switch {
	case expenseErrors.IsValidationErrors(err), expenseErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, "Validation errors occurred", expenseErrors.Messages(err))
	case errors.Is(err, expenseErrors.ErrExpenseNotFound):
		h.respondError(w, http.StatusNotFound, "Expense not found")
	case errors.Is(err, expenseErrors.ErrMissingOwner):
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(failureMessage)
		h.respondError(w, http.StatusInternalServerError, failureMessage)
	}
}
