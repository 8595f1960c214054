// Package security provides the storefront's security policy utilities:
// password strength validation, email shape validation, input sanitization,
// access-token expiry probing, automation-tool detection, and URL scheme
// checks. Every function here is pure and total -- no state, no I/O, and
// no panics regardless of input.
package security

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/microcosm-cc/bluemonday"
)

// Policy constants shared across the auth and session layers.
const (
	// MaxLoginAttempts is the failed-attempt threshold before lockout.
	MaxLoginAttempts = 5

	// LockoutDuration is how long an email stays locked after the
	// threshold is reached.
	LockoutDuration = 15 * time.Minute

	// SessionTimeout is the hard ceiling on session age.
	SessionTimeout = 24 * time.Hour

	// PasswordMinLength is the minimum accepted password length.
	PasswordMinLength = 8

	// MaxInputLength is the truncation limit applied by SanitizeInput.
	MaxInputLength = 1000
)

// passwordSymbols is the fixed punctuation set a password must draw at
// least one character from.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// PasswordResult reports the outcome of a password policy check. Errors
// carries one message per violated rule; all rules are checked
// independently rather than short-circuiting on the first failure.
type PasswordResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidatePassword checks a password against the storefront policy:
// minimum length, at least one uppercase letter, one lowercase letter,
// one digit, and one symbol from the fixed set.
func ValidatePassword(password string) PasswordResult {
	var errs []string

	if len([]rune(password)) < PasswordMinLength {
		errs = append(errs, "password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(passwordSymbols, r) {
			hasSymbol = true
		}
	}

	if !hasUpper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "password must contain at least one number")
	}
	if !hasSymbol {
		errs = append(errs, "password must contain at least one special character")
	}

	return PasswordResult{Valid: len(errs) == 0, Errors: errs}
}

// emailRe is deliberately permissive: local@domain.tld shape with no
// whitespace. Deliverability is the mail provider's problem, not ours.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether the string looks like an email address.
// No DNS or mailbox verification is performed.
func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

// angleBrackets strips the characters most commonly used to smuggle
// markup into text fields.
var angleBrackets = strings.NewReplacer("<", "", ">", "")

// SanitizeInput trims surrounding whitespace, strips literal angle
// brackets, and truncates to MaxInputLength runes. This is a
// defense-in-depth measure for plain-text fields, not a substitute for
// output encoding.
func SanitizeInput(input string) string {
	s := angleBrackets.Replace(strings.TrimSpace(input))
	runes := []rune(s)
	if len(runes) > MaxInputLength {
		return string(runes[:MaxInputLength])
	}
	return s
}

// strictPolicy strips all HTML from rich-ish text fields (bio, display
// names coming from OAuth providers). Bluemonday policies are safe for
// concurrent use.
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeHTML removes every HTML element and attribute from the input,
// returning plain text. Used for user-provided fields that are later
// rendered in browser contexts.
func SanitizeHTML(input string) string {
	return strictPolicy.Sanitize(input)
}

// IsTokenExpired reports whether a JWT-shaped access token is expired.
// The signature is NOT verified -- this is a local convenience probe of
// the exp claim, not an authenticity check. Any parse failure or missing
// claim is treated as expired.
func IsTokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return exp.Before(time.Now())
}

// suspiciousAgents are lowercase substrings that mark common automation
// tools. Known to false-positive (any UA containing "java" matches);
// callers must treat a hit as low-confidence telemetry, never as an
// enforcement signal.
var suspiciousAgents = []string{
	"bot", "crawler", "spider", "scraper",
	"curl", "wget", "python", "java", "perl", "ruby",
}

// SuspiciousUserAgent reports whether the user-agent string matches a
// known automation-tool signature.
func SuspiciousUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, sig := range suspiciousAgents {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}

// IsSecureURL reports whether a URL uses https or points at localhost.
func IsSecureURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "https" || u.Hostname() == "localhost"
}

// csrfTokenBytes is the number of random bytes in a generated CSRF token.
const csrfTokenBytes = 32

// GenerateCSRFToken creates a cryptographically random hex-encoded token.
func GenerateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
