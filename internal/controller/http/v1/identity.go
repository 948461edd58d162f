package httpv1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type identityKey struct{}

var (
	ErrInvalidToken   = errors.New("invalid bearer token")
	ErrMissingSubject = errors.New("token subject is not an actor id")
)

// IdentityMiddleware resolves the caller. A request without a bearer token
// acts as the system; the token subject is the actor id.
func IdentityMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := domain.Identity{
				SourceAddress: c.RealIP(),
				ClientAgent:   req.UserAgent(),
			}

			if header := req.Header.Get(echo.HeaderAuthorization); header != "" {
				raw, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || len(secret) == 0 {
					return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error())
				}
				actorID, err := ActorFromToken(raw, secret)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
				}
				id.ActorID = &actorID
			}

			c.SetRequest(req.WithContext(context.WithValue(req.Context(), identityKey{}, id)))
			return next(c)
		}
	}
}

func ActorFromToken(raw string, secret []byte) (string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(sub); err != nil {
		return "", ErrMissingSubject
	}
	return sub, nil
}

func identityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}
