package interfaces

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type pathParamKey string

// ValidateExpensePathParamsMiddleware parses every named path parameter as a UUID and stores
// the parsed value in the request context. A malformed id cannot name a stored record, so it
// is answered as not found.
func (h *ExpenseHandler) ValidateExpensePathParamsMiddleware(next http.Handler, params ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, param := range params {
			paramValue := r.PathValue(param)
			if paramValue == "" {
				h.respondError(w, http.StatusBadRequest, param+" is required")
				return
			}

			parsedUUID, err := uuid.Parse(paramValue)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Str("param", param).Str("value", paramValue).Msg("malformed path id")
				h.respondError(w, http.StatusNotFound, "Expense not found")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), pathParamKey(param), parsedUUID))
		}
		next.ServeHTTP(w, r)
	})
}

func pathUUID(r *http.Request, param string) (uuid.UUID, bool) {
	id, ok := r.Context().Value(pathParamKey(param)).(uuid.UUID)
	return id, ok
}
