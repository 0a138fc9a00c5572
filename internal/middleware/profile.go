package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/zimsave/zimsave_plus/internal/identity"
)

const profileLocal = "profile"

// RequireProfile rejects requests until someone has signed up or logged in.
// It is a presence check on the local profile, not authentication.
func RequireProfile(ids *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := ids.Current(c.UserContext())
		if errors.Is(err, identity.ErrNoProfile) {
			return fiber.NewError(http.StatusUnauthorized, "sign in required")
		}
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		c.Locals(profileLocal, p)
		return c.Next()
	}
}

// ProfileFrom returns the profile resolved by RequireProfile.
func ProfileFrom(c *fiber.Ctx) (identity.Profile, bool) {
	p, ok := c.Locals(profileLocal).(identity.Profile)
	return p, ok
}
