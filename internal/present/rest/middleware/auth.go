package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/service"
)

var tracer = otel.Tracer("auth")

var invalidTokenBody = []byte(`{"error": "Authentication Failed: Invalid Token"}`)

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyIdentity attaches the bearer token's Principal to the request
// context. Requests without a bearer token pass through anonymously; a bearer
// token that cannot be turned into a Principal ends the request with 401.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		authHeader := c.Request().Header.Get(domain.AuthorizationHeader)
		if !strings.HasPrefix(authHeader, domain.BearerPrefix) {
			return next(c)
		}

		if _, ok := domain.PrincipalFromContext(ctx); ok {
			return next(c)
		}

		token := strings.TrimPrefix(authHeader, domain.BearerPrefix)
		principal, err := s.auth.ExtractPrincipal(ctx, token)
		if err != nil {
			span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.ExtractPrincipal failed"))
			return c.Blob(http.StatusUnauthorized, echo.MIMEApplicationJSON, invalidTokenBody)
		}

		span.SetAttributes(attribute.Int64("RequesterId", principal.UserID()))
		ctx = domain.ContextWithPrincipal(ctx, principal)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireAuth rejects anonymous requests, and requests whose Principal holds
// none of roles when roles is non-empty.
func RequireAuth(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := domain.PrincipalFromContext(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if len(roles) == 0 {
				return next(c)
			}
			for _, role := range roles {
				if principal.HasRole(role) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
		}
	}
}
