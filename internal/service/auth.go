package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

const tokenIssuer = "tictactoe-escrow"

type AuthService interface {
	GenerateToken(identity entity.Identity) (string, error)
	VerifyToken(token string) (entity.Identity, error)
}

type authServiceImpl struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(secretKey string, ttl time.Duration) AuthService {
	return &authServiceImpl{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// GenerateToken signs a bearer token whose subject is the identity.
func (that *authServiceImpl) GenerateToken(identity entity.Identity) (string, error) {
	if identity == "" {
		return "", fmt.Errorf("%w: empty identity", apperror.ErrUnauthenticated)
	}

	now := that.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   string(identity),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(that.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken checks the signature and expiry and returns the signer.
func (that *authServiceImpl) VerifyToken(token string) (entity.Identity, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return that.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(that.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", apperror.ErrUnauthenticated)
		}

		return "", fmt.Errorf("%w: %w", apperror.ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", apperror.ErrUnauthenticated)
	}

	return entity.Identity(claims.Subject), nil
}
