package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sebuszqo/ExpenseTracker/internal/user"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserService struct {
	users map[string]*user.User
	err   error
}

func newFakeUserService() *fakeUserService {
	return &fakeUserService{users: make(map[string]*user.User)}
}

func (f *fakeUserService) add(t *testing.T, id, email, login, password, hashToken string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user.User{ID: id, Email: email, Login: login, PasswordHash: string(hash), HashToken: hashToken}
	f.users[id] = u
	return u
}

func (f *fakeUserService) Register(context.Context, string, string, string) (*user.User, error) {
	return nil, user.ErrInternalError
}

func (f *fakeUserService) GetUserByID(_ context.Context, userID string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserService) GetUserByLoginOrEmail(_ context.Context, loginOrEmail string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Login == loginOrEmail || u.Email == loginOrEmail {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

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
