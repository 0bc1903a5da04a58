package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "sessionid"
	SessionDuration   = 14 * 24 * time.Hour
	LoginURL          = "/auth/login/"

	userContextKey = "user"
)

// SessionManager issues and verifies the signed session cookie.
type SessionManager struct {
	secret []byte
	secure bool
}

// NewSessionManager signs sessions with secret. Secure marks the cookie
// HTTPS-only.
func NewSessionManager(secret string, secure bool) *SessionManager {
	return &SessionManager{secret: []byte(secret), secure: secure}
}

// Issue returns a signed session token for user.
func (m *SessionManager) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies token and returns its claims.
func (m *SessionManager) Parse(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// Login starts a session for user on the response.
func (m *SessionManager) Login(c echo.Context, user *models.User) error {
	token, err := m.Issue(user)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(userContextKey, user)
	return nil
}

// Logout clears the session cookie.
func (m *SessionManager) Logout(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(userContextKey, nil)
}

// LoadUser resolves the session cookie into the current user. Requests with
// a missing, forged or stale cookie continue anonymously.
func LoadUser(m *SessionManager, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := m.Parse(cookie.Value)
			if err != nil {
				m.Logout(c)
				return next(c)
			}
			user, err := users.GetUserByID(c.Request().Context(), claims.UserID)
			if err != nil {
				m.Logout(c)
				return next(c)
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireLogin redirects anonymous requests to the login page, remembering
// where they were going.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.Redirect(http.StatusFound, LoginRedirectURL(c.Request().URL))
			}
			return next(c)
		}
	}
}

// CurrentUser returns the signed-in user, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// CurrentUserID is 0 for anonymous requests.
func CurrentUserID(c echo.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

// LoginRedirectURL is the login page with next pointing at u. Slashes stay
// readable; everything else is query-escaped.
func LoginRedirectURL(u *url.URL) string {
	next := strings.ReplaceAll(url.QueryEscape(u.RequestURI()), "%2F", "/")
	return LoginURL + "?next=" + next
}
