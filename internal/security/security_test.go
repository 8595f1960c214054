package security

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

// --- Password Validation Tests ---

func TestValidatePassword_Valid(t *testing.T) {
	valid := []string{
		"Abcdef1!",
		"Sup3r$ecret",
		`P@ssw0rd"quote`,
		"Longer-Is-F1ne!withMoreChars",
	}
	for _, pw := range valid {
		res := ValidatePassword(pw)
		if !res.Valid {
			t.Errorf("expected %q to be valid, got errors: %v", pw, res.Errors)
		}
		if len(res.Errors) != 0 {
			t.Errorf("expected no errors for %q, got %v", pw, res.Errors)
		}
	}
}

func TestValidatePassword_SingleViolation(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1!xyz"},
		{"no uppercase", "abcdef1!"},
		{"no lowercase", "ABCDEF1!"},
		{"no digit", "Abcdefg!"},
		{"no symbol", "Abcdefg1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidatePassword(tt.password)
			if res.Valid {
				t.Fatalf("expected %q to be invalid", tt.password)
			}
			if len(res.Errors) != 1 {
				t.Errorf("expected exactly 1 error, got %d: %v", len(res.Errors), res.Errors)
			}
		})
	}
}

func TestValidatePassword_AllViolationsReported(t *testing.T) {
	// Empty password violates every rule.
	res := ValidatePassword("")
	if res.Valid {
		t.Fatal("expected empty password to be invalid")
	}
	if len(res.Errors) != 5 {
		t.Errorf("expected 5 errors, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestValidatePassword_SymbolSet(t *testing.T) {
	// Symbols outside the fixed set do not satisfy the symbol rule.
	res := ValidatePassword("Abcdefg1~")
	if res.Valid {
		t.Error("expected tilde not to count as a special character")
	}

	// Every character in the set satisfies it.
	for _, sym := range passwordSymbols {
		res := ValidatePassword("Abcdefg1" + string(sym))
		if !res.Valid {
			t.Errorf("expected %q to count as a special character, got %v", sym, res.Errors)
		}
	}
}

// --- Email Validation Tests ---

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a@b.co", true},
		{"user+tag@sub.example.org", true},
		{"", false},
		{"plainaddress", false},
		{"no-at-sign.com", false},
		{"missing@tld", false},
		{"spaces in@example.com", false},
		{"trailing@example.com ", false},
		{"two@@example.com", false},
	}

	for _, tt := range tests {
		if got := ValidateEmail(tt.email); got != tt.want {
			t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

// --- Sanitization Tests ---

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"strips angle brackets", "<script>alert(1)</script>", "scriptalert(1)/script"},
		{"keeps inner content", "a < b > c", "a  b  c"},
		{"empty input", "", ""},
		{"whitespace only", "   \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeInput(tt.input); got != tt.want {
				t.Errorf("SanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeInput_Truncation(t *testing.T) {
	long := strings.Repeat("a", MaxInputLength+500)
	got := SanitizeInput(long)
	if len(got) != MaxInputLength {
		t.Errorf("expected %d chars after truncation, got %d", MaxInputLength, len(got))
	}
}

func TestSanitizeInput_TrimBeforeTruncate(t *testing.T) {
	// Leading whitespace must not count against the length limit.
	input := "   " + strings.Repeat("b", MaxInputLength)
	got := SanitizeInput(input)
	if len(got) != MaxInputLength {
		t.Errorf("expected %d chars, got %d", MaxInputLength, len(got))
	}
}

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<b>bold</b>", "bold"},
		{"<script>alert(1)</script>hi", "hi"},
		{"plain text", "plain text"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeHTML(tt.input); got != tt.want {
			t.Errorf("SanitizeHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// --- Token Expiry Tests ---

// makeUnsignedJWT builds a JWT-shaped token with the given claims and a
// junk signature. IsTokenExpired never verifies signatures, so any
// signature will do.
func makeUnsignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return fmt.Sprintf("%s.%s.signature", header, body)
}

func TestIsTokenExpired(t *testing.T) {
	future := makeUnsignedJWT(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	past := makeUnsignedJWT(t, map[string]any{"exp": time.Now().Add(-time.Hour).Unix()})
	noExp := makeUnsignedJWT(t, map[string]any{"sub": "user-123"})

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"future expiry", future, false},
		{"past expiry", past, true},
		{"missing exp claim", noExp, true},
		{"empty token", "", true},
		{"garbage token", "not.a.jwt", true},
		{"single segment", "abcdef", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTokenExpired(tt.token); got != tt.want {
				t.Errorf("IsTokenExpired = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- User-Agent Tests ---

func TestSuspiciousUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36", false},
		{"Googlebot/2.1 (+http://www.google.com/bot.html)", true},
		{"curl/8.4.0", true},
		{"python-requests/2.31.0", true},
		{"Wget/1.21", true},
		{"CRAWLER-X", true},
		{"", false},
		// Substring matching is intentionally aggressive.
		{"Mozilla/5.0 Java/17", true},
	}

	for _, tt := range tests {
		if got := SuspiciousUserAgent(tt.ua); got != tt.want {
			t.Errorf("SuspiciousUserAgent(%q) = %v, want %v", tt.ua, got, tt.want)
		}
	}
}

// --- URL Tests ---

func TestIsSecureURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/path", true},
		{"http://localhost:3000/callback", true},
		{"http://example.com", false},
		{"ftp://example.com", false},
		{"://bad", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSecureURL(tt.url); got != tt.want {
			t.Errorf("IsSecureURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

// --- CSRF Token Tests ---

func TestGenerateCSRFToken(t *testing.T) {
	tok, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("GenerateCSRFToken failed: %v", err)
	}
	if len(tok) != csrfTokenBytes*2 {
		t.Errorf("expected %d hex chars, got %d", csrfTokenBytes*2, len(tok))
	}

	tok2, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("GenerateCSRFToken failed: %v", err)
	}
	if tok == tok2 {
		t.Error("expected distinct tokens")
	}
}
