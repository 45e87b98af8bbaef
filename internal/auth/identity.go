package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/oprema/internal/model"
)

// ErrDomainNotAllowed is returned for principals outside the permitted email
// domain.
var ErrDomainNotAllowed = errors.New("email domain not allowed")

// CheckDomain returns ErrDomainNotAllowed unless email belongs to domain. An
// empty domain allows everyone.
func CheckDomain(email, domain string) error {
	if !model.EmailInDomain(model.NormalizeEmail(email), domain) {
		return fmt.Errorf("%w: %s", ErrDomainNotAllowed, email)
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
