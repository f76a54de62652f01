package auth

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "tasktrack/internal/errors"
	"tasktrack/internal/model"
	"tasktrack/internal/repository"
)

// Context keys for values attached by the auth middleware chain.
const (
	claimsContextKey = "token_claims"
	userContextKey   = "auth_user"
)

// TokenMiddleware extracts and verifies the bearer token on the secured
// group. Parsing is delegated to the JWT service so token handling stays in
// one place.
func TokenMiddleware(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return jwtService.ValidateToken(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			mapped := apperrors.ErrInvalidToken
			switch {
			case errors.Is(err, echojwt.ErrJWTMissing):
				mapped = apperrors.ErrNoAuthHeader
			case errors.Is(err, apperrors.ErrTokenExpired):
				mapped = apperrors.ErrTokenExpired
			}
			httpErr := apperrors.MapErrorToHTTP(mapped)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// LoadUser resolves the token's user id against the credential store and
// attaches the user to the request context. A token whose user no longer
// exists is rejected like any other invalid credential.
func LoadUser(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsContextKey).(*Claims)
			if !ok {
				httpErr := apperrors.MapErrorToHTTP(apperrors.ErrInvalidToken)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// a vanished user reads as an auth failure, not a 404
					return echo.NewHTTPError(http.StatusUnauthorized,
						apperrors.ErrorResponse{Message: apperrors.ErrUserNotFound.Error()})
				}
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user resolved by LoadUser for this request.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userContextKey).(*model.User)
	return user, ok
}
