package api

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	secureCookieVersion  = "v1"
	secureCookieInfo     = "edjs.secure-cookie.v1"
	sessionCookiePurpose = "session"
)

var errInvalidSecureCookieValue = errors.New("invalid secure cookie value")

// secureCookieCodec seals cookie values with AES-GCM. The purpose is bound as
// additional data so a value sealed for one cookie never opens as another.
type secureCookieCodec struct {
	aead cipher.AEAD
}

func newSecureCookieCodec(secretKey []byte) (*secureCookieCodec, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("secure cookie secret key is required")
	}

	derivedKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secretKey, nil, []byte(secureCookieInfo)), derivedKey); err != nil {
		return nil, fmt.Errorf("derive secure cookie key: %w", err)
	}
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("init secure cookie cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init secure cookie aead: %w", err)
	}
	return &secureCookieCodec{aead: aead}, nil
}

func cookieAdditionalData(purpose string) ([]byte, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, errors.New("secure cookie purpose is required")
	}
	return []byte("edjs.cookie." + purpose), nil
}

func (codec *secureCookieCodec) seal(purpose string, plaintext []byte) (string, error) {
	aad, err := cookieAdditionalData(purpose)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, codec.aead.NonceSize(), codec.aead.NonceSize()+len(plaintext)+codec.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate secure cookie nonce: %w", err)
	}
	payload := codec.aead.Seal(nonce, nonce, plaintext, aad)
	return secureCookieVersion + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

func (codec *secureCookieCodec) open(purpose string, rawValue string) ([]byte, error) {
	aad, err := cookieAdditionalData(purpose)
	if err != nil {
		return nil, err
	}

	version, encoded, found := strings.Cut(strings.TrimSpace(rawValue), ".")
	if !found || version != secureCookieVersion || encoded == "" {
		return nil, errInvalidSecureCookieValue
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errInvalidSecureCookieValue
	}

	nonceSize := codec.aead.NonceSize()
	if len(payload) <= nonceSize {
		return nil, errInvalidSecureCookieValue
	}
	plaintext, err := codec.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], aad)
	if err != nil {
		return nil, errInvalidSecureCookieValue
	}
	return plaintext, nil
}
