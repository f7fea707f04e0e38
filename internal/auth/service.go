package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/cncview/internal/typeid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// AnonymousSubject is the token subject when no access key is configured.
const AnonymousSubject = "anonymous"

// Service issues and checks access tokens. A single shared access key,
// stored as a bcrypt hash, gates token issue. An empty hash disables auth.
type Service struct {
	jwtSecret     []byte
	accessKeyHash []byte
	ttl           time.Duration
	now           func() time.Time
}

func NewService(jwtSecret, accessKeyHash string, ttl time.Duration) *Service {
	return &Service{
		jwtSecret:     []byte(jwtSecret),
		accessKeyHash: []byte(accessKeyHash),
		ttl:           ttl,
		now:           time.Now,
	}
}

// Enabled reports whether an access key is required.
func (s *Service) Enabled() bool {
	return len(s.accessKeyHash) > 0
}

type TokenResult struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// IssueToken checks accessKey and signs a token for a fresh session.
func (s *Service) IssueToken(accessKey string) (*TokenResult, error) {
	if s.Enabled() {
		if err := bcrypt.CompareHashAndPassword(s.accessKeyHash, []byte(accessKey)); err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	sessionID := typeid.NewSessionID()
	now := s.now()
	exp := now.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub": sessionID,
		"jti": typeid.NewTokenID(),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &TokenResult{Token: signed, SessionID: sessionID, ExpiresAt: exp.Unix()}, nil
}

// ValidateToken returns the session ID a token was issued for.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sessionID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return sessionID, nil
}

// Authenticate resolves the session for a request token. With auth disabled
// every request is anonymous.
func (s *Service) Authenticate(tokenString string) (string, error) {
	if !s.Enabled() {
		return AnonymousSubject, nil
	}
	if tokenString == "" {
		return "", fmt.Errorf("%w: missing token", ErrInvalidToken)
	}
	return s.ValidateToken(tokenString)
}
