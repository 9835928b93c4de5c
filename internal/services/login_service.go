package services

import (
	"context"
	"errors"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/models"
	"storefront-admin/internal/session"
	"storefront-admin/internal/validation"

	"github.com/rs/zerolog"
)

// ErrNoTokenIssued means the backend accepted the credentials but sent no
// token back; the session stays unauthenticated.
var ErrNoTokenIssued = errors.New("login succeeded but no token was received")

type LoginService struct {
	api    *backend.Client
	logger zerolog.Logger
}

func NewLoginService(api *backend.Client, logger zerolog.Logger) *LoginService {
	return &LoginService{
		api:    api,
		logger: logger,
	}
}

// Login validates req, exchanges it for a token and stores the token in
// store. remember controls whether the credentials are kept for autofill.
func (s *LoginService) Login(ctx context.Context, store *session.Store, req models.LoginRequest, remember bool) error {
	if err := validation.Struct(&req); err != nil {
		return err
	}

	token, err := s.api.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		return err
	}
	if token == "" {
		s.logger.Warn().Str("email", req.Email).Msg("Login succeeded without a token")
		return ErrNoTokenIssued
	}

	if err := store.Login(ctx, token); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store session token")
		return err
	}

	if err := store.RememberCredentials(ctx, req.Email, req.Password, remember); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update remembered credentials")
		return err
	}

	s.logger.Info().Str("email", req.Email).Bool("remember", remember).Msg("Admin logged in")
	return nil
}

func (s *LoginService) Logout(ctx context.Context, store *session.Store) error {
	if err := store.Logout(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear session")
		return err
	}
	return nil
}
