package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

// TokenService issues and validates session tokens. Tokens are JWTs, but
// each one is also recorded (as a SHA256 hash) in the auth_tokens table so a
// logout revokes it server-side before its expiry.
type TokenService struct {
	store     *store.Store
	secretKey []byte

	// TokenDuration is the session lifetime.
	TokenDuration time.Duration
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// NewTokenService creates a token service.
func NewTokenService(st *store.Store, secretKey string, duration time.Duration) *TokenService {
	if duration <= 0 {
		duration = 7 * 24 * time.Hour
	}
	return &TokenService{
		store:         st,
		secretKey:     []byte(secretKey),
		TokenDuration: duration,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateToken issues a session token for user and records its hash.
func (ts *TokenService) CreateToken(ctx context.Context, user *models.User) (token string, expiresAt time.Time, err error) {
	expiresAt = time.Now().Add(ts.TokenDuration)

	claims := &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "scholarfeed",
			Subject:   user.ID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	if err := ts.store.InsertAuthToken(ctx, user.ID, hashToken(signed), "session", expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken checks signature, expiry and revocation, returning the user
// id the token was issued for.
func (ts *TokenService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	active, err := ts.store.AuthTokenValid(ctx, hashToken(tokenString))
	if err != nil {
		return "", err
	}
	if !active {
		return "", fmt.Errorf("token revoked or expired")
	}
	return claims.UserID, nil
}

// RevokeToken deletes the token's server-side record.
func (ts *TokenService) RevokeToken(ctx context.Context, tokenString string) error {
	return ts.store.DeleteAuthToken(ctx, hashToken(tokenString))
}
