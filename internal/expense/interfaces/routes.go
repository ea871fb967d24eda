package interfaces

import "net/http"

// RegisterRoutes mounts the expense endpoints on mux behind protect, which must put the
// authenticated owner in the request context.
func (h *ExpenseHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	withID := func(next http.HandlerFunc) http.Handler {
		return protect(h.ValidateExpensePathParamsMiddleware(next, ExpenseIDParam))
	}

	mux.Handle("GET /api/protected/expenses", protect(http.HandlerFunc(h.ListExpenses)))
	mux.Handle("POST /api/protected/expenses", protect(http.HandlerFunc(h.CreateExpense)))
	mux.Handle("GET /api/protected/expenses/summary", protect(http.HandlerFunc(h.SummarizeExpenses)))
	mux.Handle("GET /api/protected/expenses/categories", protect(http.HandlerFunc(h.GetCategories)))
	mux.Handle("GET /api/protected/expenses/{expenseID}", withID(h.GetExpense))
	mux.Handle("PUT /api/protected/expenses/{expenseID}", withID(h.UpdateExpense))
	mux.Handle("DELETE /api/protected/expenses/{expenseID}", withID(h.DeleteExpense))
}
