package security

import (
	"crypto/rand"
	"errors"
	"io"
)

const (
	// AlphanumericAlphabet is used for API key material.
	AlphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// ReadableAlphabet drops glyphs that are easy to misread (0/O, 1/l/I).
	ReadableAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
	errLargeAlphabet  = errors.New("alphabet must not exceed 256 characters")
)

// RandomString draws length characters from alphabet using crypto/rand.
// Bytes above the largest multiple of len(alphabet) are rejected so every
// character is equally likely.
func RandomString(length int, alphabet string) (string, error) {
	return randomStringFrom(rand.Reader, length, alphabet)
}

func randomStringFrom(source io.Reader, length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if length == 0 {
		return "", nil
	}
	if len(alphabet) == 0 {
		return "", errEmptyAlphabet
	}
	if len(alphabet) > 256 {
		return "", errLargeAlphabet
	}

	ceiling := 256 - 256%len(alphabet)
	value := make([]byte, 0, length)
	buffer := make([]byte, length+length/2+1)
	for len(value) < length {
		if _, err := io.ReadFull(source, buffer); err != nil {
			return "", err
		}
		for _, b := range buffer {
			if int(b) >= ceiling {
				continue
			}
			value = append(value, alphabet[int(b)%len(alphabet)])
			if len(value) == length {
				break
			}
		}
	}
	return string(value), nil
}
