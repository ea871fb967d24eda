package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sebuszqo/ExpenseTracker/internal/user"
)

var (
	ErrUserNotFound       = user.ErrUserNotFound
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternalError      = errors.New("internal Server Error")
)

type Service interface {
	Login(ctx context.Context, emailOrLogin, password string) (*user.User, string, string, error)
	RefreshAccessToken(ctx context.Context, userID string) (string, string, error)
	JWTRefreshTokenMiddleware() func(http.Handler) http.Handler
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	userService user.Service
	jwtManager  JWTManagerInterface
}

func NewAuthService(userService user.Service, jwtManager JWTManagerInterface) Service {
	return &service{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// Login returns the user together with a fresh access token and refresh token.
func (s *service) Login(ctx context.Context, emailOrLogin, password string) (*user.User, string, string, error) {
	logger := zerolog.Ctx(ctx)

	existingUser, err := s.userService.GetUserByLoginOrEmail(ctx, emailOrLogin)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		logger.Error().Err(err).Msg("could not load user for login")
		return nil, "", "", ErrInternalError
	}

	if !user.DoPasswordsMatch(existingUser.PasswordHash, password) {
		logger.Info().Str("user_id", existingUser.ID).Msg("login rejected: password mismatch")
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issueTokens(existingUser)
	if err != nil {
		logger.Error().Err(err).Msg("could not issue tokens")
		return nil, "", "", ErrInternalError
	}

	logger.Info().Str("user_id", existingUser.ID).Msg("user logged in")
	return existingUser, accessToken, refreshToken, nil
}

// RefreshAccessToken runs behind JWTRefreshTokenMiddleware, which has already verified the cookie.
func (s *service) RefreshAccessToken(ctx context.Context, userID string) (string, string, error) {
	existingUser, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", "", ErrUserNotFound
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("could not load user for refresh")
		return "", "", ErrInternalError
	}

	accessToken, refreshToken, err := s.issueTokens(existingUser)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("could not issue tokens")
		return "", "", ErrInternalError
	}
	return accessToken, refreshToken, nil
}

func (s *service) issueTokens(u *user.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateAccessJWT(u.ID)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(u.ID, u.HashToken)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}
