// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidEditKey = errors.New("invalid edit key")

// GenerateID creates a random UUID for tallies and result snapshots
func GenerateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return id.String(), nil
}

// ValidID reports whether id has the shape GenerateID produces
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

// GenerateEditKey creates an HMAC-based edit key for a tally
// This is deterministic and verifiable
func GenerateEditKey(tallyID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(tallyID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateEditKey checks if the provided edit key is valid for the tally
func ValidateEditKey(tallyID, editKey, salt string) error {
	expected := GenerateEditKey(tallyID, salt)
	if !hmac.Equal([]byte(editKey), []byte(expected)) {
		return ErrInvalidEditKey
	}
	return nil
}
