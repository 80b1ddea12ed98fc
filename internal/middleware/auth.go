package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

// TokenHeader is the header the web client sends its session token in.
const TokenHeader = "x-access-token"

const (
	LocalUserID   = "userID"
	LocalUsername = "username"
	LocalRole     = "role"
	LocalClaims   = "claims"
)

// Authenticator resolves a session token. *service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(token string) (*service.Claims, error)
}

func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := strings.TrimSpace(c.Get(TokenHeader))
		if tokenString == "" {
			if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
				// Extract token from "Bearer <token>"
				scheme, token, found := strings.Cut(authHeader, " ")
				if !found || !strings.EqualFold(scheme, "Bearer") {
					return httpx.FromError(c, service.ErrInvalidToken)
				}
				tokenString = strings.TrimSpace(token)
			}
		}
		if tokenString == "" {
			return httpx.FromError(c, service.ErrInvalidToken)
		}

		claims, err := auth.Authenticate(tokenString)
		if err != nil {
			if apperr.IsKind(err, apperr.KindInternal) {
				return httpx.FromError(c, err)
			}
			return httpx.FromError(c, service.ErrInvalidToken)
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthRequired, or nil.
func ClaimsFrom(c *fiber.Ctx) *service.Claims {
	claims, _ := c.Locals(LocalClaims).(*service.Claims)
	return claims
}
