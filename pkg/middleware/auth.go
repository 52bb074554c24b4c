package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by JWTMiddleware
const (
	ContextKeyUserID   = "user_id"
	ContextKeyTenantID = "tenant_id"
	ContextKeyRole     = "role"
	ContextKeyEmail    = "email"
)

// Roles recognised by the platform
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleCustomer  = "customer"
)

// Claims are the access token claims issued by the identity provider
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures JWTMiddleware
type JWTConfig struct {
	Secret string
	Issuer string
	// SkipPaths are served without a token
	SkipPaths []string
	// Optional lets requests without a token through unauthenticated
	Optional bool
}

// JWTMiddleware validates HS256 bearer tokens and stores the caller identity in the context
func JWTMiddleware(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if p == c.FullPath() || p == c.Request.URL.Path {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			if cfg.Optional {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("Authorization header is required"))
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("Invalid authorization header format"))
			return
		}

		claims, err := ParseToken(raw, cfg.Secret, cfg.Issuer)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized(msg))
			return
		}

		c.Set(ContextKeyUserID, claims.Subject)
		c.Set(ContextKeyTenantID, claims.TenantID)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// ParseToken validates signature, expiry and issuer and returns the claims
func ParseToken(raw, secret, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: missing subject or tenant", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// GenerateToken signs claims for the given user. Used by tests and local tooling.
func GenerateToken(secret, issuer, userID, tenantID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RequireRole rejects callers whose role is not in roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized("Authentication required"))
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("Insufficient permissions"))
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyUserID)
}

func GetTenantID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyTenantID)
}

func GetRole(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyRole)
}

// IsAdmin reports whether the caller has the admin role
func IsAdmin(c *gin.Context) bool {
	role, _ := GetRole(c)
	return role == RoleAdmin
}

func getString(c *gin.Context, key string) (string, bool) {
	v := c.GetString(key)
	return v, v != ""
}
