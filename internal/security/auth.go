package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
)

const (
	// TokenIssuer is the iss claim of every admin token
	TokenIssuer = "coopcredit-guard"
	// AdminRole is the only role the service knows
	AdminRole = "admin"

	adminSubjectKey = "admin_subject"
)

// ErrMissingSecret is returned when admin tokens are requested without a signing secret
var ErrMissingSecret = errors.New("admin JWT secret is not configured")

// AdminClaims are the claims carried by an admin token
type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// MintAdminToken signs an HS256 admin token for subject valid for ttl
func MintAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := time.Now()
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Role: AdminRole,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAdminToken validates tokenString and returns its claims
func ParseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role != AdminRole {
		return nil, fmt.Errorf("token role %q is not %q", claims.Role, AdminRole)
	}

	return claims, nil
}

// AdminAuth requires a valid admin bearer token
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			appErr := apperrors.NewUnauthorizedError("Missing bearer token", nil)
			apperrors.LogError(c, appErr)
			apperrors.Abort(c, appErr)
			return
		}

		claims, err := ParseAdminToken(secret, strings.TrimSpace(tokenString))
		if err != nil {
			appErr := apperrors.NewUnauthorizedError("Invalid admin token", err)
			apperrors.LogError(c, appErr)
			apperrors.Abort(c, appErr)
			return
		}

		c.Set(adminSubjectKey, claims.Subject)
		c.Next()
	}
}

// AdminSubject returns the subject of the token AdminAuth accepted
func AdminSubject(c *gin.Context) string {
	return c.GetString(adminSubjectKey)
}
