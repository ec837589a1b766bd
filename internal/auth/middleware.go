package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/commerce-desk/internal/domain"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

const actorKey = "auth_actor"

// Middleware authenticates forwarded gateway requests: the gateway proves
// itself with X-Api-Key, and each request carries a bearer JWT asserting
// the end user acting through it.
type Middleware struct {
	tokens         *TokenManager
	gatewayKeyHash string
}

// NewMiddleware constructs middleware. gatewayKeyHash is the bcrypt hash
// of the shared gateway API key.
func NewMiddleware(tokens *TokenManager, gatewayKeyHash string) *Middleware {
	return &Middleware{tokens: tokens, gatewayKeyHash: gatewayKeyHash}
}

// RequireGateway verifies the X-Api-Key header against the configured hash.
func (m *Middleware) RequireGateway(c *fiber.Ctx) error {
	apiKey := c.Get("X-Api-Key")
	if apiKey == "" {
		return apperrors.NewUnauthorized("missing api key")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.gatewayKeyHash), []byte(apiKey)); err != nil {
		return apperrors.NewUnauthorized("invalid api key")
	}
	return c.Next()
}

// RequireActor validates the bearer token and stores the actor in locals.
func (m *Middleware) RequireActor(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	actor, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// RequireCapability gates a route on the actor holding at least one of the
// given capabilities.
func (m *Middleware) RequireCapability(caps ...domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("missing actor")
		}
		if !actor.HasAny(caps...) {
			return apperrors.NewForbidden("insufficient capabilities")
		}
		return c.Next()
	}
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return domain.Actor{}, false
	}
	actor, ok := val.(domain.Actor)
	return actor, ok
}
