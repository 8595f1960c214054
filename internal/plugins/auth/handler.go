package auth

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/idle"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "warningweb_session"

// Handler handles HTTP requests for authentication. Handlers are thin:
// they bind the request, call the service, and write JSON. No business
// logic lives here.
type Handler struct {
	service AuthService
	oauth   OAuthService
	monitor *idle.Monitor

	sessionTTL time.Duration
	spaOrigin  string
}

// NewHandler creates a new auth handler. oauth and monitor may be nil
// when Discord login or idle tracking is disabled.
func NewHandler(service AuthService, oauth OAuthService, monitor *idle.Monitor, sessionTTL time.Duration, spaOrigin string) *Handler {
	return &Handler{
		service:    service,
		oauth:      oauth,
		monitor:    monitor,
		sessionTTL: sessionTTL,
		spaOrigin:  spaOrigin,
	}
}

// authResponse is the JSON body for successful authentication.
type authResponse struct {
	User   *User  `json:"user"`
	Action string `json:"action"`
}

// SignUp creates an account and opens a session (POST /api/auth/signup).
func (h *Handler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	result, err := h.service.SignUp(c.Request().Context(), SignUpInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}

	h.openSession(c, result.Token)
	return c.JSON(http.StatusCreated, authResponse{User: result.User, Action: result.Action})
}

// SignIn authenticates with email and password (POST /api/auth/signin).
func (h *Handler) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	result, err := h.service.SignIn(c.Request().Context(), SignInInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	if err != nil {
		return err
	}

	h.openSession(c, result.Token)
	return c.JSON(http.StatusOK, authResponse{User: result.User, Action: result.Action})
}

// SignInOrSignUp runs the single-form login flow (POST /api/auth/login).
// The response's action field tells the frontend whether an account was
// just created.
func (h *Handler) SignInOrSignUp(c echo.Context) error {
	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	result, err := h.service.SignInOrSignUp(c.Request().Context(), SignInInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		UserAgent:   c.Request().UserAgent(),
		IP:          c.RealIP(),
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.Action == ActionSignUp {
		status = http.StatusCreated
	}

	h.openSession(c, result.Token)
	return c.JSON(status, authResponse{User: result.User, Action: result.Action})
}

// SignOut destroys the session and clears the cookie (POST /api/auth/signout).
func (h *Handler) SignOut(c echo.Context) error {
	token := getSessionToken(c)
	if token != "" {
		// Destroy the session. Ignore errors -- the cookie is cleared
		// regardless.
		_ = h.service.SignOut(c.Request().Context(), token)
		if h.monitor != nil {
			h.monitor.Forget(token)
		}
	}

	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Session reports the current session's state (GET /api/auth/session).
// The frontend polls this to drive the idle-warning banner and the
// session-expiry countdown.
func (h *Handler) Session(c echo.Context) error {
	token := getSessionToken(c)
	if token == "" {
		return apperror.NewUnauthorized("not signed in")
	}

	session, err := h.service.ValidateSession(c.Request().Context(), token)
	if err != nil {
		clearSessionCookie(c)
		return err
	}

	if h.monitor != nil {
		h.monitor.Touch(token)
	}

	age := time.Since(session.CreatedAt)
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":       session.UserID,
		"email":         session.Email,
		"name":          session.Name,
		"provider":      session.Provider,
		"created_at":    session.CreatedAt,
		"age_seconds":   int(age.Seconds()),
		"expires_in":    int((h.sessionTTL - age).Seconds()),
	})
}

// --- Password Reset ---

// ForgotPassword requests a reset link (POST /api/auth/forgot-password).
// Always returns 202 to avoid leaking whether the email exists.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return apperror.NewBadRequest("email is required")
	}

	_ = h.service.InitiatePasswordReset(c.Request().Context(), req.Email)

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "if an account exists for that email, a reset link has been sent",
	})
}

// ValidateResetToken checks a reset link before the form is shown
// (GET /api/auth/reset-password?token=...).
func (h *Handler) ValidateResetToken(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return apperror.NewBadRequest("token is required")
	}

	email, err := h.service.ValidateResetToken(c.Request().Context(), token)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"email": email})
}

// ResetPassword sets a new password (POST /api/auth/reset-password).
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Token == "" {
		return apperror.NewBadRequest("token is required")
	}

	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "password has been reset, you can now sign in",
	})
}

// --- Discord OAuth ---

// DiscordBegin starts the OAuth flow (GET /api/auth/discord).
func (h *Handler) DiscordBegin(c echo.Context) error {
	if h.oauth == nil {
		return apperror.NewBadRequest("Discord login is not configured")
	}

	consentURL, err := h.oauth.Begin(c.Request().Context())
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusTemporaryRedirect, consentURL)
}

// DiscordCallback finishes the OAuth flow (GET /api/auth/discord/callback)
// and sends the browser back to the storefront.
func (h *Handler) DiscordCallback(c echo.Context) error {
	if h.oauth == nil {
		return apperror.NewBadRequest("Discord login is not configured")
	}

	result, err := h.oauth.Complete(c.Request().Context(), c.QueryParam("state"), c.QueryParam("code"))
	if err != nil {
		// OAuth errors land on the storefront so the user sees something
		// friendlier than a JSON blob.
		msg := "login_failed"
		if appErr, ok := err.(*apperror.AppError); ok {
			msg = url.QueryEscape(appErr.Message)
		}
		return c.Redirect(http.StatusSeeOther, h.spaOrigin+"/?auth_error="+msg)
	}

	h.openSession(c, result.Token)
	return c.Redirect(http.StatusSeeOther, h.spaOrigin+"/")
}

// --- Cookie helpers ---

// openSession sets the session cookie and starts idle tracking.
func (h *Handler) openSession(c echo.Context, token string) {
	setSessionCookie(c, token, int(h.sessionTTL.Seconds()))
	if h.monitor != nil {
		h.monitor.Touch(token)
	}
}

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
// Its lifetime matches the session's hard ceiling.
func setSessionCookie(c echo.Context, token string, maxAge int) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
