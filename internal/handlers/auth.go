package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgUsernameTaken = "A user with that username already exists."
	msgBadLogin      = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// usernameUnsafe matches what a username may not contain.
var usernameUnsafe = regexp.MustCompile(`[^\w.@+-]+`)

// AuthHandler handles sign-up, login and logout
type AuthHandler struct {
	userRepository repositories.UserRepository
	sessions       *middleware.SessionManager
	firebaseAuth   middleware.TokenVerifier
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables Firebase sign-in.
func NewAuthHandler(userRepo repositories.UserRepository, sessions *middleware.SessionManager, firebaseAuth middleware.TokenVerifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		sessions:       sessions,
		firebaseAuth:   firebaseAuth,
	}
}

// RegisterAuthRoutes registers authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	methods := []string{http.MethodGet, http.MethodPost}
	g.Match(methods, "/signup/", h.Signup)
	g.Match(methods, "/login/", h.Login)
	g.Match(methods, "/logout/", h.Logout)
	if h.firebaseAuth != nil {
		g.POST("/firebase/", h.FirebaseLogin, middleware.FirebaseIDToken(h.firebaseAuth))
	}
}

// Signup registers a local account and signs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return renderPage(c, templateSignup, echo.Map{"form": models.SignupForm{}})
	}

	var form models.SignupForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	ctx := c.Request().Context()
	errs := validators.Translate(c.Validate(&form))
	if !errs.Has("username") {
		taken, err := h.userRepository.UsernameTaken(ctx, form.Username)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("username", msgUsernameTaken)
		}
	}
	if len(errs) > 0 {
		form.Password, form.PasswordConfirm = "", ""
		return renderPage(c, templateSignup, echo.Map{"form": form, "errors": errs})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return err
	}
	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

// Login checks the credentials and returns the user to next, or to the
// index page.
func (h *AuthHandler) Login(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.renderLogin(c, models.LoginForm{Next: c.QueryParam("next")}, validators.FieldErrors{})
	}

	var form models.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form data")
	}
	form.Username = strings.TrimSpace(form.Username)
	if form.Next == "" {
		form.Next = c.QueryParam("next")
	}

	errs := validators.Translate(c.Validate(&form))
	if len(errs) > 0 {
		return h.renderLogin(c, form, errs)
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), form.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if user == nil || user.Password == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) != nil {
		errs.Add(validators.NonFieldErrors, msgBadLogin)
		return h.renderLogin(c, form, errs)
	}

	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout ends the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c)
	return c.Redirect(http.StatusFound, "/")
}

// FirebaseLogin signs in with a verified Firebase ID token. The account is
// matched by Firebase UID, then by email, and created when neither matches.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	token := middleware.FirebaseToken(c)
	ctx := c.Request().Context()
	email, _ := token.Claims["email"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		uid := token.UID
		if email != "" {
			user, err = h.userRepository.GetUserByEmail(ctx, email)
		}
		switch {
		case email != "" && err == nil:
			user.FirebaseUID = &uid
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return err
			}
		case email == "" || errors.Is(err, gorm.ErrRecordNotFound):
			username, err := h.freeUsername(c, email)
			if err != nil {
				return err
			}
			user = &models.User{Username: username, Email: email, FirebaseUID: &uid}
			if err := h.userRepository.CreateUser(ctx, user); err != nil {
				return err
			}
		default:
			return err
		}
	}

	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, safeNext(c.FormValue("next")))
}

// freeUsername derives an unused username from the local part of email.
func (h *AuthHandler) freeUsername(c echo.Context, email string) (string, error) {
	base, _, _ := strings.Cut(email, "@")
	base = usernameUnsafe.ReplaceAllString(base, "")
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}

	candidate := base
	for i := 1; ; i++ {
		taken, err := h.userRepository.UsernameTaken(c.Request().Context(), candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

func (h *AuthHandler) renderLogin(c echo.Context, form models.LoginForm, errs validators.FieldErrors) error {
	form.Password = ""
	return renderPage(c, templateLogin, echo.Map{
		"form":             form,
		"next":             form.Next,
		"errors":           errs,
		"firebase_enabled": h.firebaseAuth != nil,
	})
}

// safeNext only allows redirects to local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return "/"
	}
	return next
}
