package services

import (
	"context"
	"errors"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/session"

	"github.com/rs/zerolog"
)

// expireOnUnauthorized logs the store out when err says the backend no
// longer accepts its token. err is returned unchanged.
func expireOnUnauthorized(ctx context.Context, store *session.Store, err error, logger zerolog.Logger) error {
	if err == nil || !errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	if logoutErr := store.Logout(ctx); logoutErr != nil {
		logger.Error().Err(logoutErr).Msg("Failed to clear rejected session")
		return err
	}
	logger.Warn().Msg("Backend rejected admin token, session cleared")
	return err
}
