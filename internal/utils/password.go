package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PlaceholderPasswordHash hashes a random secret that is never shown to
// anyone, for accounts created without a password. Costs outside bcrypt's
// range fall back to bcrypt.DefaultCost.
func PlaceholderPasswordHash(cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	secret, err := RandomHex(24)
	if err != nil {
		return "", fmt.Errorf("placeholder password: %w", err)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("placeholder password: %w", err)
	}
	return string(b), nil
}
