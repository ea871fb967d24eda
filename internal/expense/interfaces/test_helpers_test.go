package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebuszqo/ExpenseTracker/internal/auth"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/application"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/infrastructure"
	"github.com/stretchr/testify/require"
)

const (
	ownerA      = "11111111-1111-1111-1111-111111111111"
	ownerB      = "22222222-2222-2222-2222-222222222222"
	ownerHeader = "X-Test-Owner"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}

	respondJSON(w, status, payload)
}

// fakeAuth stands in for the JWT middleware: the owner comes from a test header.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if owner := r.Header.Get(ownerHeader); owner != "" {
			r = r.WithContext(auth.WithUserID(r.Context(), owner))
		}
		next.ServeHTTP(w, r)
	})
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ domain.ExpenseEvent) error { return nil }

type testServer struct {
	repo *infrastructure.MemoryExpenseRepository
	mux  *http.ServeMux
}

func newTestServer() *testServer {
	repo := infrastructure.NewMemoryExpenseRepository()
	service := application.NewExpenseService(repo, domain.NewFilterResolver(domain.DefaultPageSize, domain.MaxPageSize), noopPublisher{})
	handler := NewExpenseHandler(service, respondJSON, respondError)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, fakeAuth)
	return &testServer{repo: repo, mux: mux}
}

func (s *testServer) do(t *testing.T, owner, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

type envelope[T any] struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Code    int      `json:"code"`
	Errors  []string `json:"errors"`
	Data    T        `json:"data"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

// seed creates an expense through the API and returns the stored record.
func (s *testServer) seed(t *testing.T, owner, title, amount string, category domain.Category, date string) domain.Expense {
	t.Helper()
	rr := s.do(t, owner, http.MethodPost, "/api/protected/expenses",
		`{"title":"`+title+`","amount":`+amount+`,"category":"`+string(category)+`","date":"`+date+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[domain.Expense](t, rr).Data
}
