package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"skitro/internal/domain"
)

const (
	userIDKey    = "userID"
	userRoleKey  = "userRole"
	userPhoneKey = "userPhone"
)

// Claims is the token issued by the identity service.
type Claims struct {
	ID    any    `json:"id"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) userID() (int64, error) {
	switch v := c.ID.(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		if c.Subject != "" {
			return strconv.ParseInt(c.Subject, 10, 64)
		}
	}
	return 0, errors.New("token has no user id")
}

// ParseToken validates an HS256 bearer token.
func ParseToken(secret, raw string) (domain.RequestContext, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.RequestContext{}, err
	}
	id, err := claims.userID()
	if err != nil || id <= 0 {
		return domain.RequestContext{}, errors.New("token has no user id")
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if role == "" {
		role = domain.RoleRider
	}
	return domain.RequestContext{UserID: id, Role: role, Phone: claims.Phone}, nil
}

// Authenticate requires a valid bearer token and stores the caller on the context.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, no token", "code": "unauthorized"})
			return
		}
		rc, err := ParseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, token failed", "code": "unauthorized"})
			return
		}
		c.Set(userIDKey, rc.UserID)
		c.Set(userRoleKey, rc.Role)
		c.Set(userPhoneKey, rc.Phone)
		c.Next()
	}
}

// RequireRider is Authenticate plus the rider role. Admins pass too.
func RequireRider(secret string) gin.HandlersChain {
	return gin.HandlersChain{Authenticate(secret), RequireRoles(domain.RoleRider, domain.RoleAdmin)}
}

// Caller returns the authenticated identity, if any.
func Caller(c *gin.Context) (domain.RequestContext, bool) {
	id := c.GetInt64(userIDKey)
	if id <= 0 {
		return domain.RequestContext{}, false
	}
	return domain.RequestContext{
		UserID: id,
		Role:   c.GetString(userRoleKey),
		Phone:  c.GetString(userPhoneKey),
	}, true
}
