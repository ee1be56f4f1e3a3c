package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	ctxSubject = "auth_sub"
	ctxRole    = "auth_role"
)

// Claims are the bearer token claims. The identity is the standard subject.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for sub.
func IssueToken(secret, sub, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// JWTAuth requires a valid bearer token and stores its subject and role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(h, "Bearer ") || secret == "" {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			claims, err := ParseToken(secret, strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			c.Set(ctxSubject, claims.Subject)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

// RequireRole rejects identities whose token role is not one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SubjectFrom(c) == "" {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			if _, ok := allowed[RoleFrom(c)]; !ok {
				return deny(c, http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// SubjectFrom returns the authenticated identity, or "".
func SubjectFrom(c echo.Context) string {
	s, _ := c.Get(ctxSubject).(string)
	return s
}

// RoleFrom returns the role claimed by the token, or "".
func RoleFrom(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

func deny(c echo.Context, status int, reason string) error {
	return c.JSON(status, map[string]interface{}{
		"ok":     false,
		"reason": reason,
	})
}
