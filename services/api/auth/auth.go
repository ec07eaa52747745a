// Package auth checks operator credentials against the Users table and
// mints the bearer tokens the API routes require.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/marebio/respirolab/services/api/logger"
	"github.com/marebio/respirolab/services/api/store"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Claims are the token claims carried per operator.
type Claims struct {
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// Service verifies logins and signs/parses tokens.
type Service struct {
	backend store.Backend
	secret  []byte
	ttl     time.Duration
	log     *logger.Logger
}

// NewService builds the auth edge over the store backend.
func NewService(backend store.Backend, secret string, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		backend: backend,
		secret:  []byte(secret),
		ttl:     ttl,
		log:     log.With("component", "auth"),
	}
}

// Login validates the credentials and returns the operator's full name plus
// a signed token. Stored bcrypt hashes are compared as hashes; legacy
// plaintext rows fall back to a constant-time equality check.
func (s *Service) Login(ctx context.Context, username, password string) (string, string, error) {
	table := store.UsersTable
	rows, err := s.backend.Rows(ctx, table.Name)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", table.Name, err)
	}
	userCol := table.Col("Username")
	passCol := table.Col("Password")
	nameCol := table.Col("Nome_Completo")
	for i, row := range rows {
		if i == 0 || len(row) < userCol || row[userCol-1] != username {
			continue
		}
		stored := cell(row, passCol)
		if !passwordMatches(stored, password) {
			break
		}
		fullName := cell(row, nameCol)
		token, err := s.sign(username, fullName)
		if err != nil {
			return "", "", err
		}
		return fullName, token, nil
	}
	s.log.Warn("login rejected", "username", username)
	return "", "", ErrInvalidCredentials
}

// Verify parses a token and returns the operator username it was issued to.
func (s *Service) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

func (s *Service) sign(username, fullName string) (string, error) {
	now := time.Now()
	claims := Claims{
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// HashPassword produces a bcrypt hash for new Users rows.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}
