package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core/user"
)

// activeUserMiddleware loads the User of the token into the context. Deactivated Users are rejected.
func (a authenticator) activeUserMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := a.contextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if !usr.IsActive {
			return errAccountDeactivated
		}
		return next(ctx)
	}
}

// adminMiddleware must run after activeUserMiddleware.
func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, ok := ctx.Get(contextUserKey).(user.User)
		if !ok {
			return errUnauthorized
		}
		if !usr.IsAdmin() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

// adminWritesMiddleware lets any active User read, and only admins write.
func adminWritesMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	admin := adminMiddleware(next)
	return func(ctx echo.Context) error {
		switch ctx.Request().Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(ctx)
		}
		return admin(ctx)
	}
}
