package middleware

import (
	"context"
	"errors"
	"strings"

	"bunkhouse/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type AuthContextKey string

const (
	ActorKey      AuthContextKey = "actor"
	ActorKeyFiber string         = "Actor"

	// DevActorHeader names the acting staff member when no JWT secret is
	// configured, which config only allows in development.
	DevActorHeader = "X-Actor"
)

// Actor is the authenticated staff member recorded on stays, problems and
// cleaning records.
type Actor struct {
	Name string
	Role string
}

type StaffClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RequireActor validates an HS256 bearer token and exposes its subject as the
// acting staff member.
func (m *Middleware) RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.UserContext()).Function("RequireActor")

		if m.Config.JWTSecret == "" {
			name := strings.TrimSpace(c.Get(DevActorHeader))
			if name == "" {
				name = "developer"
			}
			return m.setActor(c, Actor{Name: name, Role: RoleManager})
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		actor, err := m.ParseToken(tokenParts[1])
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		return m.setActor(c, actor)
	}
}

var ErrMissingSubject = errors.New("token has no subject")

// ParseToken validates a signed staff token and returns its actor.
func (m *Middleware) ParseToken(raw string) (Actor, error) {
	claims := &StaffClaims{}
	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (any, error) { return []byte(m.Config.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Actor{}, err
	}
	if claims.Subject == "" {
		return Actor{}, ErrMissingSubject
	}

	return Actor{Name: claims.Subject, Role: claims.Role}, nil
}

func (m *Middleware) setActor(c *fiber.Ctx, actor Actor) error {
	c.Locals(ActorKeyFiber, actor)

	ctx := context.WithValue(c.UserContext(), ActorKey, actor)
	c.SetUserContext(ctx)

	return c.Next()
}

// GetActor returns the authenticated staff member, or the zero Actor on
// public routes.
func GetActor(c *fiber.Ctx) Actor {
	actor, ok := c.Locals(ActorKeyFiber).(Actor)
	if !ok {
		return Actor{}
	}
	return actor
}

// AuthenticateToken resolves a bearer token to an actor name for channels
// that cannot carry headers, such as the websocket handshake.
func (m *Middleware) AuthenticateToken(token string) (string, error) {
	if m.Config.JWTSecret == "" {
		return "developer", nil
	}

	actor, err := m.ParseToken(token)
	if err != nil {
		return "", err
	}
	return actor.Name, nil
}
