package services

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

const passphraseCost = 12

// AuthService guards the dashboard with a single owner passphrase.
type AuthService struct {
	hash   []byte
	tokens *TokenService
}

// NewAuthService hashes passphrase once. An empty passphrase disables
// authentication.
func NewAuthService(passphrase string, tokens *TokenService) (*AuthService, error) {
	s := &AuthService{tokens: tokens}
	if passphrase == "" {
		return s, nil
	}

	if utf8.RuneCountInString(passphrase) < 8 {
		return nil, domain.ErrPassphraseTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), passphraseCost)
	if err != nil {
		return nil, err
	}
	s.hash = hash
	return s, nil
}

func (s *AuthService) Enabled() bool {
	return len(s.hash) > 0
}

func (s *AuthService) Login(passphrase string) (string, error) {
	if !s.Enabled() {
		return "", domain.ErrAuthDisabled
	}

	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(passphrase)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	return s.tokens.GenerateToken(domain.OwnerSubject)
}
