package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

const firebaseTokenContextKey = "firebaseToken"

// TokenVerifier is the part of the Firebase auth client used for sign-in.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseIDToken verifies the Firebase ID token posted as the id_token form
// field (or sent as a bearer token) and stores it for the handler.
func FirebaseIDToken(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken := c.FormValue("id_token")
			if idToken == "" {
				parts := strings.Split(c.Request().Header.Get("Authorization"), " ")
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					idToken = parts[1]
				}
			}
			if idToken == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "Missing Firebase ID token")
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired Firebase ID token")
			}

			c.Set(firebaseTokenContextKey, token)
			return next(c)
		}
	}
}

// FirebaseToken returns the token verified by FirebaseIDToken, or nil.
func FirebaseToken(c echo.Context) *auth.Token {
	token, _ := c.Get(firebaseTokenContextKey).(*auth.Token)
	return token
}
