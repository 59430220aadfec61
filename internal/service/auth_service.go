package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"fan_controller/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL    = time.Hour
	tokenIssuer = "fan_controller"

	// MinSigningKeyLen is the shortest accepted auth.signing_key, in bytes.
	MinSigningKeyLen = 32
	minPasswordLen   = 8
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSignUpClosed    = errors.New("sign-up is closed: an operator account already exists")
	ErrWeakCredentials = fmt.Errorf("username is required and password must be at least %d characters", minPasswordLen)
	ErrShortSigningKey = fmt.Errorf("auth.signing_key must be at least %d bytes", MinSigningKeyLen)
)

var errMissingSigningKey = errors.New("signing key is empty")

// SigningKey turns the configured key into HMAC key bytes. An empty value
// yields a random per-process key (generated=true), so tokens do not
// survive a restart. A non-empty key shorter than MinSigningKeyLen is
// rejected.
func SigningKey(configured string) (key []byte, generated bool, err error) {
	if configured == "" {
		key = make([]byte, MinSigningKeyLen)
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("generate signing key: %w", err)
		}
		return key, true, nil
	}
	if len(configured) < MinSigningKeyLen {
		return nil, false, ErrShortSigningKey
	}
	return []byte(configured), false, nil
}

// AuthService authenticates the single operator allowed to change settings.
// The first sign-up claims the operator account; later sign-ups fail with
// ErrSignUpClosed.
type AuthService struct {
	repo       repository.Authorization
	signingKey []byte
}

// NewAuthService panics on an empty key; use SigningKey to obtain one.
func NewAuthService(repo repository.Authorization, signingKey []byte) *AuthService {
	if len(signingKey) == 0 {
		panic(errMissingSigningKey)
	}
	return &AuthService{repo: repo, signingKey: signingKey}
}

// Claims are the JWT claims issued to the operator.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// SignUp creates the operator account while none exists.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < minPasswordLen {
		return 0, ErrWeakCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateOperator(ctx, username, string(hash))
	if errors.Is(err, repository.ErrOperatorExists) {
		return 0, ErrSignUpClosed
	}
	return id, err
}

// EnsureOperator seeds the operator account from configuration. It is a
// no-op when an account already exists.
func (s *AuthService) EnsureOperator(ctx context.Context, username, password string) (created bool, err error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.SignUp(ctx, username, password); err != nil {
		if errors.Is(err, ErrSignUpClosed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GenerateToken checks the operator's credentials and issues a JWT.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(u.ID, time.Now())
}

// ParseToken validates an HS256 token issued by this process and returns
// the operator id.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims,
		func(*jwt.Token) (interface{}, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

func (s *AuthService) issueToken(userID int, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.signingKey)
}
