package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/neurallempire/neurallempire-api/internal/config"
	"github.com/neurallempire/neurallempire-api/internal/domain/user"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"github.com/neurallempire/neurallempire-api/internal/storage/memstorage"
	"go.uber.org/zap"
)

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	repo   user.Repository
	cfg    *config.JWTConfig
	logger *zap.Logger
}

func NewAuthService(repo user.Repository, cfg *config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("AuthService"),
	}
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (string, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Debug("Login attempt for unknown user", zap.String("username", username))
		return "", ierr.ErrInvalidCredentials
	}

	if !memstorage.CheckPassword(u.PasswordHash, password) {
		s.logger.Debug("Login attempt with wrong password", zap.String("username", username))
		return "", ierr.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := AdminClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", fmt.Errorf("%w: token signing failed: %v", ierr.ErrInternalServer, err)
	}

	s.logger.Info("Issued admin access token", zap.String("subject", claims.Subject))
	return signed, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, rawToken string) (*AdminClaims, error) {
	var claims AdminClaims
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithExpirationRequired())

	if err != nil {
		s.logger.Warn("Failed to verify access token", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ierr.ErrInvalidToken
	}

	return &claims, nil
}
