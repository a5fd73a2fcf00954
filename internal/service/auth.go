// 운영용 엔드포인트(statistics, cleanup) 보호를 위한 토큰 검증 로직
// 토큰은 오프라인에서 발급 (IssueToken) - 로그인 플로우는 없음

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/k-fix/backend/internal/config"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMisconfigured = errors.New("auth config invalid")
)

// AuthService 구조체 정의
type AuthService struct {
	jwtSecret []byte
	accessTTL time.Duration
}

type authClaims struct {
	jwt.RegisteredClaims
}

// AuthService 객체 생성
func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	return &AuthService{
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: accessTTL,
	}, nil
}

// IssueToken - subject에 대한 접근 토큰 발급 (운영 스크립트용)
func (s *AuthService) IssueToken(subject string) (string, error) {
	now := time.Now()
	claims := authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseAccessToken - Bearer 토큰 검증 후 subject 반환
func (s *AuthService) ParseAccessToken(tokenStr string) (string, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	return claims.Subject, nil
}
