package middleware

import (
	"context"
	"strings"

	"github.com/deppfellow/classroom/internal/errs"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Authenticator resolves a bearer token into a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

type AuthMiddleware struct {
	server *server.Server
	auth   Authenticator
}

func NewAuthMiddleware(s *server.Server, auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		auth:   auth,
	}
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token.
//
// On success the user, its id and role and the session are stored on the
// echo context, and the request logger is enriched with the user.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			GetLogger(c).Warn().Str("ip", c.RealIP()).Msg("missing bearer token")
			return errs.NewUnauthorizedError("Unauthenticated", true)
		}

		session, err := auth.auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			GetLogger(c).Warn().Str("ip", c.RealIP()).Msg("rejected bearer token")
			return err
		}

		user := session.User
		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(UserRoleKey, string(user.Role))
		c.Set(SessionKey, session)

		contextLogger := GetLogger(c).With().
			Int64("user_id", user.ID).
			Str("user_role", string(user.Role)).
			Logger()
		setLogger(c, &contextLogger)

		if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
			txn.AddAttribute("user.id", user.ID)
			txn.AddAttribute("user.role", string(user.Role))
		}

		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
