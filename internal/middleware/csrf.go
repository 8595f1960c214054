package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/warningbypass/warningweb/internal/security"
)

// csrfCookieName is the name of the cookie that stores the CSRF token.
const csrfCookieName = "warningweb_csrf"

// csrfHeaderName is the header the storefront frontend sends the token in.
const csrfHeaderName = "X-CSRF-Token"

// csrfFormField is the hidden form field name for plain form submissions.
const csrfFormField = "csrf_token"

// CSRF returns middleware that implements the double-submit cookie pattern
// for CSRF protection on all state-changing requests (POST, PUT, PATCH,
// DELETE). Sessions, carts, and checkout all ride on cookies, so the API
// routes are covered too.
//
// How it works:
//  1. On every request, if no CSRF cookie exists, generate one and set it.
//  2. On mutating requests, compare the cookie value with either the
//     X-CSRF-Token header (frontend fetch calls) or the csrf_token form
//     field (plain form submissions).
//  3. If they don't match, reject with 403 Forbidden.
//
// The cookie is intentionally readable by JavaScript: the frontend copies
// its value into the X-CSRF-Token header on every mutating fetch.
func CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// Ensure a CSRF token cookie exists.
			cookie, err := req.Cookie(csrfCookieName)
			if err != nil || cookie.Value == "" {
				token, genErr := security.GenerateCSRFToken()
				if genErr != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate CSRF token")
				}

				c.SetCookie(&http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false, // Must be readable by JS so the frontend can echo it.
					Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
					SameSite: http.SameSiteLaxMode,
				})

				// Store token in context for templates to access.
				c.Set("csrf_token", token)
			} else {
				c.Set("csrf_token", cookie.Value)
			}

			// Skip validation for safe (non-mutating) HTTP methods.
			if isSafeMethod(req.Method) {
				return next(c)
			}

			// A brand-new cookie cannot have been echoed back yet; the
			// request that minted it must still present a matching token.
			cookieToken := ""
			if cookie != nil {
				cookieToken = cookie.Value
			} else if ct, ok := c.Get("csrf_token").(string); ok {
				cookieToken = ct
			}

			// Check header first (fetch calls), then form field.
			submittedToken := req.Header.Get(csrfHeaderName)
			if submittedToken == "" {
				submittedToken = req.FormValue(csrfFormField)
			}

			// Constant-time comparison prevents timing side channels that
			// could leak the token byte-by-byte.
			if submittedToken == "" || subtle.ConstantTimeCompare([]byte(submittedToken), []byte(cookieToken)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token")
			}

			return next(c)
		}
	}
}

// isSafeMethod returns true for HTTP methods that should not change state.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// GetCSRFToken retrieves the CSRF token from the Echo context so pages can
// inject it into forms.
func GetCSRFToken(c echo.Context) string {
	if token, ok := c.Get("csrf_token").(string); ok {
		return token
	}
	return ""
}
