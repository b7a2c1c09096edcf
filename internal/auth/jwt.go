package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "peach-village"

var (
	// ErrWeakSecret секрет короче 32 байт
	ErrWeakSecret = errors.New("auth: secret key must be at least 32 bytes")
	// ErrInvalidToken подпись, срок или формат токена не прошли проверку
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims JWT claims оператора деревни
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет HS256 токены операторов
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer создаёт выпускающего с секретом не короче 32 байт
func NewTokenIssuer(secret []byte) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &TokenIssuer{secret: cp}, nil
}

// NewTokenIssuerFromBase64 секрет в base64, как его выдаёт GenerateSecureSecret
func NewTokenIssuerFromBase64(secret string) (*TokenIssuer, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("auth: decode secret: %w", err)
	}
	return NewTokenIssuer(decoded)
}

// Issue выпускает токен для operator сроком ttl
func (ti *TokenIssuer) Issue(operator string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   operator,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate проверяет токен и возвращает его claims
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// GenerateSecureSecret генерирует новый секрет в base64
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
