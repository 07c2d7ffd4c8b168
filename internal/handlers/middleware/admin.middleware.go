package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const RoleManager = "manager"

// RequireManager guards settings and bulk operations. It must run after
// RequireActor.
func (m *Middleware) RequireManager() fiber.Handler {
	log := m.log.Function("RequireManager")

	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor.Name == "" {
			log.Info("actor not found in context")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if actor.Role != RoleManager {
			log.Info("actor is not a manager", "actor", actor.Name, "role", actor.Role)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Manager access required",
			})
		}

		return c.Next()
	}
}
