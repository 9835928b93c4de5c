// Package session holds the administrator's backend token for one browser.
//
// A Store has two states. It starts Unauthenticated, becomes Authenticated
// on Login and returns to Unauthenticated on Logout. A token persisted by an
// earlier process is trusted when the store is loaded; callers force a
// Logout when the backend rejects it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront-admin/internal/storage"

	"github.com/rs/zerolog"
)

// Persisted keys.
const (
	KeyToken         = "token"
	KeySavedEmail    = "savedEmail"
	KeySavedPassword = "savedPassword"
)

var ErrEmptyToken = errors.New("session: token is empty")

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Credentials are the values remembered for login autofill.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) IsZero() bool {
	return c.Email == "" && c.Password == ""
}

type Store struct {
	id     string
	kv     storage.KV
	sealer *Sealer
	logger zerolog.Logger
	// onLogout runs after a successful Logout, outside the store lock.
	onLogout func(id string)

	mu         sync.RWMutex
	token      string
	remembered Credentials
}

// Load builds the store for browser id from whatever was persisted before.
func Load(ctx context.Context, id string, kv storage.KV, sealer *Sealer, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		id:     id,
		kv:     kv,
		sealer: sealer,
		logger: logger.With().Str("session_id", id).Logger(),
	}

	token, err := s.read(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	email, err := s.read(ctx, KeySavedEmail)
	if err != nil {
		return nil, err
	}
	sealed, err := s.read(ctx, KeySavedPassword)
	if err != nil {
		return nil, err
	}

	var password string
	if sealed != "" {
		password, err = sealer.Open(sealed)
		if err != nil {
			s.logger.Warn().Msg("Discarding remembered password that cannot be unsealed")
			password = ""
			if err := kv.Delete(ctx, id, KeySavedPassword); err != nil {
				return nil, err
			}
		}
	}

	s.token = token
	s.remembered = Credentials{Email: email, Password: password}
	return s, nil
}

func (s *Store) read(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, s.id, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) ID() string {
	return s.id
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) State() State {
	if s.Token() == "" {
		return Unauthenticated
	}
	return Authenticated
}

func (s *Store) Remembered() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remembered
}

func (s *Store) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, s.id, KeyToken, token); err != nil {
		return err
	}
	s.token = token
	s.logger.Info().Msg("Admin session authenticated")
	return nil
}

// Logout clears the token and any remembered credentials.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.clear(ctx); err != nil {
		return err
	}
	s.logger.Info().Msg("Admin session cleared")
	if s.onLogout != nil {
		s.onLogout(s.id)
	}
	return nil
}

func (s *Store) clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.remembered = Credentials{}
	return s.kv.Delete(ctx, s.id, KeyToken, KeySavedEmail, KeySavedPassword)
}

// retained reports whether the store holds anything worth caching.
func (s *Store) retained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" || !s.remembered.IsZero()
}

// RememberCredentials persists email and password for the next login form
// when enabled, and removes them otherwise. The password is sealed before
// it is written but remains recoverable by anyone holding SESSION_SECRET.
func (s *Store) RememberCredentials(ctx context.Context, email, password string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !enabled {
		s.remembered = Credentials{}
		return s.kv.Delete(ctx, s.id, KeySavedEmail, KeySavedPassword)
	}

	sealed, err := s.sealer.Seal(password)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.id, KeySavedEmail, email); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.id, KeySavedPassword, sealed); err != nil {
		return err
	}

	s.remembered = Credentials{Email: email, Password: password}
	s.logger.Warn().Msg("Remembering admin password for autofill; it is stored encrypted but recoverable")
	return nil
}
