package services

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/security"
	"github.com/zeebo/blake3"
	"gorm.io/gorm"
)

const (
	apiKeyPrefix       = "edjs_"
	apiKeyRandomLength = 40
	apiKeyDisplayChars = 12
)

var (
	ErrAPIKeyNameRequired = errors.New("api key name required")
	ErrAPIKeyExpiryPast   = errors.New("api key expiry in the past")
	ErrAPIKeyInvalid      = errors.New("api key invalid")
	ErrAPIKeyNotFound     = errors.New("api key not found")
)

type APIKeyRepository interface {
	Create(key *models.APIKey) error
	List() ([]models.APIKey, error)
	FindByHash(keyHash string) (models.APIKey, error)
	Deactivate(keyID uint) error
	Delete(keyID uint) error
	TouchLastUsed(keyID uint, usedAt time.Time) error
}

// IssuedAPIKey holds the plaintext key. It is returned exactly once.
type IssuedAPIKey struct {
	Key       models.APIKey
	Plaintext string
}

type APIKeyService struct {
	keys   APIKeyRepository
	audit  *AuditService
	logger *slog.Logger
	now    func() time.Time
}

func NewAPIKeyService(keys APIKeyRepository, audit *AuditService, logger *slog.Logger) *APIKeyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyService{keys: keys, audit: audit, logger: logger, now: time.Now}
}

func HashAPIKey(plaintext string) string {
	sum := blake3.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func GenerateAPIKey() (string, error) {
	random, err := security.RandomString(apiKeyRandomLength, security.AlphanumericAlphabet)
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + random, nil
}

func (service *APIKeyService) Create(actor Actor, name string, expiresAt *time.Time) (IssuedAPIKey, error) {
	if err := requireAdminActor(actor); err != nil {
		return IssuedAPIKey{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return IssuedAPIKey{}, ErrAPIKeyNameRequired
	}
	now := service.now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return IssuedAPIKey{}, ErrAPIKeyExpiryPast
	}

	plaintext, err := GenerateAPIKey()
	if err != nil {
		return IssuedAPIKey{}, err
	}
	key := models.APIKey{
		Name:      name,
		KeyPrefix: plaintext[:apiKeyDisplayChars],
		KeyHash:   HashAPIKey(plaintext),
		CreatedBy: actor.UserID,
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := service.keys.Create(&key); err != nil {
		return IssuedAPIKey{}, err
	}
	if err := service.audit.Record(actor, "api_key.created", "api_keys", key.ID, map[string]any{
		"name":       key.Name,
		"key_prefix": key.KeyPrefix,
	}); err != nil {
		return IssuedAPIKey{}, err
	}
	return IssuedAPIKey{Key: key, Plaintext: plaintext}, nil
}

func (service *APIKeyService) List(actor Actor) ([]models.APIKey, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	return service.keys.List()
}

func (service *APIKeyService) Revoke(actor Actor, keyID uint) error {
	return service.mutate(actor, keyID, "api_key.revoked", service.keys.Deactivate)
}

func (service *APIKeyService) Delete(actor Actor, keyID uint) error {
	return service.mutate(actor, keyID, "api_key.deleted", service.keys.Delete)
}

func (service *APIKeyService) mutate(actor Actor, keyID uint, action string, apply func(uint) error) error {
	if err := requireAdminActor(actor); err != nil {
		return err
	}
	if err := apply(keyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}
	return service.audit.Record(actor, action, "api_keys", keyID, nil)
}

// Authenticate resolves a presented key to an active, unexpired record and
// stamps its last use.
func (service *APIKeyService) Authenticate(presented string) (models.APIKey, error) {
	presented = strings.TrimSpace(presented)
	if !strings.HasPrefix(presented, apiKeyPrefix) || len(presented) != len(apiKeyPrefix)+apiKeyRandomLength {
		return models.APIKey{}, ErrAPIKeyInvalid
	}

	hash := HashAPIKey(presented)
	key, err := service.keys.FindByHash(hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.APIKey{}, ErrAPIKeyInvalid
		}
		return models.APIKey{}, err
	}
	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hash)) != 1 {
		return models.APIKey{}, ErrAPIKeyInvalid
	}

	now := service.now().UTC()
	if !key.IsUsableAt(now) {
		return models.APIKey{}, ErrAPIKeyInvalid
	}
	if err := service.keys.TouchLastUsed(key.ID, now); err != nil {
		service.logger.Warn("api key last-used update failed", "key_id", key.ID, "error", err)
	}
	key.LastUsedAt = &now
	return key, nil
}
