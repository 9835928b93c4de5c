package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/flash"
	"storefront-admin/internal/session"

	"github.com/rs/zerolog"
)

const sessionExpiredMessage = "Session expired. Please login again."

// userMessage picks the text shown for a failed backend call: the server's
// own message when it sent one, otherwise fallback.
func userMessage(err error, fallback string) string {
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	return fallback
}

// redirectWithFlash stores a notice for the next page and redirects.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, codec *flash.Codec, logger zerolog.Logger, to string, f flash.Flash) {
	if err := codec.Set(w, f); err != nil {
		logger.Error().Err(err).Msg("Failed to set flash cookie")
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// sessionLost reports whether err ended the admin session, in which case
// the browser has been sent back to the login page with notice.
func sessionLost(w http.ResponseWriter, r *http.Request, store *session.Store, err error, codec *flash.Codec, logger zerolog.Logger, notice string) bool {
	if !errors.Is(err, backend.ErrUnauthorized) && !errors.Is(err, backend.ErrMissingCredentials) {
		return false
	}
	if store.State() == session.Authenticated {
		return false
	}
	redirectWithFlash(w, r, codec, logger, "/login", flash.Flash{Kind: flash.KindWarning, Message: notice})
	return true
}

func errorNotice(msg string) *flash.Flash {
	return &flash.Flash{Kind: flash.KindError, Message: msg}
}

func respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	respondWithJSON(w, code, map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// Health reports liveness and how many browser sessions are loaded.
func Health(w http.ResponseWriter, sessions *session.Manager) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": sessions.Len(),
	})
}
