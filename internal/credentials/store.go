package credentials

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"

	"github.com/nutricontrol/nutricontrol/internal/models"
)

// Storage keys. They are private to the credential store.
const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)

// Sentinel errors
var (
	// ErrEmptyToken is returned when saving a session without a token.
	ErrEmptyToken = errors.New("empty session token")

	// ErrNotFound is returned by a Backend when a key has no value.
	ErrNotFound = errors.New("credential entry not found")
)

// Backend is a durable key-value store scoped to this device.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Credentials is the persisted token and the profile saved with it.
type Credentials struct {
	Token   string
	Profile *models.UserProfile
}

// Store persists the session token and user profile across restarts.
type Store struct {
	backend Backend
}

// NewStore creates a credential store on top of the given backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Save overwrites any existing token and profile.
func (s *Store) Save(token string, profile models.UserProfile) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := s.backend.Put(TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	if err := s.backend.Put(UserKey, data); err != nil {
		// Never leave a token without its profile behind.
		_ = s.backend.Delete(TokenKey)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	log.Debug().
		Str("fingerprint", Fingerprint(token)).
		Str("email", profile.Email).
		Msg("credentials saved")

	return nil
}

// Load returns the persisted credentials. The boolean is false when no token
// is stored. A profile that fails to parse is purged and reported as nil.
func (s *Store) Load() (Credentials, bool) {
	raw, err := s.backend.Get(TokenKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Msg("failed to read stored token")
		}
		return Credentials{}, false
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return Credentials{}, false
	}

	return Credentials{Token: token, Profile: s.loadProfile()}, true
}

func (s *Store) loadProfile() *models.UserProfile {
	raw, err := s.backend.Get(UserKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Msg("failed to read stored profile")
		}
		return nil
	}

	switch strings.TrimSpace(string(raw)) {
	case "", "null", "undefined":
		s.purgeProfile("empty profile entry")
		return nil
	}

	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		s.purgeProfile(err.Error())
		return nil
	}

	return &profile
}

func (s *Store) purgeProfile(reason string) {
	log.Warn().Str("reason", reason).Msg("stored profile is corrupt, removing it")
	if err := s.backend.Delete(UserKey); err != nil && !errors.Is(err, ErrNotFound) {
		log.Warn().Err(err).Msg("failed to remove corrupt profile")
	}
}

// Clear removes the token and profile. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	var errs []error
	for _, key := range []string{TokenKey, UserKey} {
		if err := s.backend.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Fingerprint identifies a token in logs without revealing it.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	fp := base58.Encode(hash[:])
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fp
}
