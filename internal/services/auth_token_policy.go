package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenPurpose string

const (
	TokenPurposeSession           TokenPurpose = "session"
	TokenPurposeEmailConfirmation TokenPurpose = "email_confirmation"
	TokenPurposePasswordRecovery  TokenPurpose = "password_recovery"
)

const (
	DefaultSessionTTL           = 7 * 24 * time.Hour
	DefaultEmailConfirmationTTL = 72 * time.Hour
	DefaultPasswordRecoveryTTL  = 24 * time.Hour
)

var (
	ErrTokenMissing              = errors.New("missing token")
	ErrTokenInvalid              = errors.New("invalid token")
	ErrTokenInvalidPurpose       = errors.New("invalid token purpose")
	ErrTokenExpired              = errors.New("expired token")
	ErrTokenInvalidUserID        = errors.New("invalid token user id")
	ErrTokenInvalidPasswordState = errors.New("invalid token password state")
)

// UserTokenClaims carry only the user id and the token purpose. Roles are
// never put in a token.
type UserTokenClaims struct {
	UserID        uint         `json:"uid"`
	Purpose       TokenPurpose `json:"purpose"`
	PasswordState string       `json:"password_state,omitempty"`
	jwt.RegisteredClaims
}

func BuildUserToken(secretKey []byte, purpose TokenPurpose, userID uint, passwordHash string, ttl time.Duration, now time.Time) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := UserTokenClaims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if purpose == TokenPurposePasswordRecovery {
		claims.PasswordState = PasswordStateFingerprint(passwordHash)
		if claims.PasswordState == "" {
			return "", ErrTokenInvalidPasswordState
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

func ParseUserToken(secretKey []byte, purpose TokenPurpose, rawToken string, now time.Time) (*UserTokenClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrTokenMissing
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := &UserTokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenInvalidPurpose
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, ErrTokenExpired
	}
	if claims.UserID == 0 {
		return nil, ErrTokenInvalidUserID
	}
	if purpose == TokenPurposePasswordRecovery && strings.TrimSpace(claims.PasswordState) == "" {
		return nil, ErrTokenInvalidPasswordState
	}
	return claims, nil
}

// PasswordStateFingerprint binds a recovery token to the password hash it
// was issued against, so a used link dies with the old password.
func PasswordStateFingerprint(passwordHash string) string {
	normalizedHash := strings.TrimSpace(passwordHash)
	if normalizedHash == "" {
		return ""
	}

	sum := sha256.Sum256([]byte("edjs.recovery.password-state.v1:" + normalizedHash))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func IsPasswordStateFingerprintMatch(expected string, passwordHash string) bool {
	actual := PasswordStateFingerprint(passwordHash)
	if strings.TrimSpace(expected) == "" || strings.TrimSpace(actual) == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
