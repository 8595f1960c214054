package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/loginlimit"
	"github.com/warningbypass/warningweb/internal/mail"
	"github.com/warningbypass/warningweb/internal/metrics"
	"github.com/warningbypass/warningweb/internal/security"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// argon2id parameters following OWASP recommendations: memory=64MB,
// iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error)
	SignIn(ctx context.Context, input SignInInput) (*AuthResult, error)
	SignInOrSignUp(ctx context.Context, input SignInInput) (*AuthResult, error)

	ValidateSession(ctx context.Context, token string) (*Session, error)
	SessionAge(ctx context.Context, token string) (time.Duration, error)
	DestroySession(ctx context.Context, token string) error
	SignOut(ctx context.Context, token string) error

	InitiatePasswordReset(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, token string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
}

// ActivityRecorder is the cross-plugin contract for the activity log.
// Recording is best-effort; implementations must never fail the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, userID, action string, details map[string]any)
}

// StatsRecorder is the cross-plugin contract for login statistics.
type StatsRecorder interface {
	RecordLogin(ctx context.Context, userID string)
}

// ProfileSyncer is the cross-plugin contract for lazy profile creation.
type ProfileSyncer interface {
	// EnsureProfile creates the user's profile row if it doesn't exist.
	EnsureProfile(ctx context.Context, userID, displayName string)

	// SyncDiscord enriches the profile with Discord identity metadata.
	SyncDiscord(ctx context.Context, userID string, p DiscordProfile)
}

// Deps bundles the auth service dependencies. Repo, Redis, Limiter, and
// SessionTTL are required; the rest are optional and nil-safe.
type Deps struct {
	Repo    UserRepository
	Redis   *redis.Client
	Limiter loginlimit.Limiter

	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	BaseURL       string

	Mail     mail.Sender
	Metrics  *metrics.Collector
	Activity ActivityRecorder
	Stats    StatsRecorder
	Profiles ProfileSyncer
}

// authService implements AuthService with argon2id hashing and Redis
// sessions.
type authService struct {
	repo    UserRepository
	redis   *redis.Client
	limiter loginlimit.Limiter

	sessionTTL    time.Duration
	resetTokenTTL time.Duration
	baseURL       string

	mail     mail.Sender
	metrics  *metrics.Collector
	activity ActivityRecorder
	stats    StatsRecorder
	profiles ProfileSyncer
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(deps Deps) AuthService {
	return &authService{
		repo:          deps.Repo,
		redis:         deps.Redis,
		limiter:       deps.Limiter,
		sessionTTL:    deps.SessionTTL,
		resetTokenTTL: deps.ResetTokenTTL,
		baseURL:       deps.BaseURL,
		mail:          deps.Mail,
		metrics:       deps.Metrics,
		activity:      deps.Activity,
		stats:         deps.Stats,
		profiles:      deps.Profiles,
	}
}

// SignUp creates a new account. It validates the email shape and password
// policy, checks uniqueness, hashes the password with argon2id, persists
// the user, and opens a session (sign-up doubles as sign-in).
func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if !security.ValidateEmail(email) {
		return nil, apperror.NewValidation("invalid email address")
	}

	if res := security.ValidatePassword(input.Password); !res.Valid {
		return nil, apperror.NewValidation(strings.Join(res.Errors, "; "))
	}

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	// Hash the password with argon2id (memory-hard, GPU-resistant).
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	displayName := security.SanitizeInput(input.DisplayName)
	if displayName == "" {
		// Fall back to the local part of the email.
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Provider:     ProviderEmail,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	token, err := s.createSession(ctx, user)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	s.metrics.RecordSignup()
	s.recordActivity(ctx, user.ID, "account_created", map[string]any{"provider": ProviderEmail})
	s.ensureProfile(ctx, user.ID, user.DisplayName)

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{Token: token, User: user, Action: ActionSignUp}, nil
}

// SignIn authenticates a user by email and password. The per-email
// lockout is consulted first; failures feed back into it. On success the
// lockout record is cleared and a new session is created.
func (s *authService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	if !security.ValidateEmail(email) {
		return nil, apperror.NewValidation("invalid email address")
	}

	// Lockout check. A limiter outage fails open: losing throttling for a
	// window beats locking every user out.
	limit, err := s.limiter.Check(ctx, email)
	if err != nil {
		slog.Warn("login limiter unavailable, allowing attempt", slog.Any("error", err))
	} else if !limit.Allowed {
		s.metrics.RecordLoginLockout()
		return nil, apperror.NewTooManyRequests(fmt.Sprintf(
			"too many login attempts, try again in %d minutes", limit.RemainingMinutes))
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			// Don't reveal whether the email exists -- count the failure
			// and use a generic message.
			s.recordFailedAttempt(ctx, email, input.UserAgent, input.IP)
			return nil, apperror.NewUnauthorized("invalid email or password")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	// OAuth-only accounts have no password; treat as wrong credentials
	// rather than leaking the account's provider.
	if user.PasswordHash == "" || !verifyPassword(input.Password, user.PasswordHash) {
		s.recordFailedAttempt(ctx, email, input.UserAgent, input.IP)
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	// Success: lift any partial lockout immediately.
	if err := s.limiter.Reset(ctx, email); err != nil {
		slog.Warn("failed to reset login limiter", slog.Any("error", err))
	}

	token, err := s.createSession(ctx, user)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	// Post-login bookkeeping is fire-and-forget, non-critical.
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	s.metrics.RecordLoginSuccess()
	s.recordActivity(ctx, user.ID, "login", map[string]any{"provider": user.Provider})
	s.recordLoginStat(ctx, user.ID)
	s.ensureProfile(ctx, user.ID, user.DisplayName)

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{Token: token, User: user, Action: ActionSignIn}, nil
}

// SignInOrSignUp is the storefront's single-form flow: try to sign in;
// if the credentials don't match an account, create one. If sign-up
// collides with an account that appeared concurrently, sign-in is retried
// exactly once.
func (s *authService) SignInOrSignUp(ctx context.Context, input SignInInput) (*AuthResult, error) {
	result, err := s.SignIn(ctx, input)
	if err == nil {
		return result, nil
	}

	// Only wrong-credential failures fall through to sign-up; lockouts
	// and internal errors propagate.
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 401 {
		return nil, err
	}

	result, signUpErr := s.SignUp(ctx, SignUpInput{
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Password:    input.Password,
	})
	if signUpErr == nil {
		return result, nil
	}

	// The account exists after all (wrong password, or created between
	// our two calls). One sign-in retry settles the race; a second
	// failure is the real answer.
	if errors.As(signUpErr, &appErr) && appErr.Code == 409 {
		return s.SignIn(ctx, input)
	}

	return nil, signUpErr
}

// ValidateSession looks up a session token in Redis and returns the
// session data if it exists and hasn't passed the hard age ceiling. A
// session past the ceiling is destroyed on sight.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	session, err := s.getSession(ctx, token)
	if err != nil {
		return nil, err
	}

	// The Redis TTL normally handles expiry; the explicit check covers
	// TTL drift and makes the ceiling independent of storage behavior.
	if time.Since(session.CreatedAt) > s.sessionTTL {
		_ = s.DestroySession(ctx, token)
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}

	return session, nil
}

// SessionAge returns how long ago the session was created.
func (s *authService) SessionAge(ctx context.Context, token string) (time.Duration, error) {
	session, err := s.getSession(ctx, token)
	if err != nil {
		return 0, err
	}
	return time.Since(session.CreatedAt), nil
}

// DestroySession removes a session from Redis, effectively logging the
// user out.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}

	return nil
}

// SignOut ends a session deliberately: the logout is attributed to the
// user in the activity log before the session is destroyed.
func (s *authService) SignOut(ctx context.Context, token string) error {
	session, err := s.getSession(ctx, token)
	if err != nil {
		// Nothing to destroy; treat an already-gone session as signed out.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 401 {
			return nil
		}
		return err
	}

	if err := s.DestroySession(ctx, token); err != nil {
		return err
	}

	s.recordActivity(ctx, session.UserID, "logout", nil)
	slog.Info("user signed out", slog.String("user_id", session.UserID))
	return nil
}

// getSession reads and decodes a session from Redis.
func (s *authService) getSession(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// createSession generates a random session token, stores the session data
// in Redis with the configured TTL, and returns the token.
func (s *authService) createSession(ctx context.Context, user *User) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	session := Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
		Provider:  user.Provider,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	key := sessionKeyPrefix + token
	if err := s.redis.Set(ctx, key, data, s.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, nil
}

// recordFailedAttempt feeds the lockout counter and emits a
// suspicious-activity event when the failure crosses the threshold.
func (s *authService) recordFailedAttempt(ctx context.Context, email, userAgent, ip string) {
	s.metrics.RecordLoginFailure()

	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		slog.Warn("failed to record login failure", slog.Any("error", err))
		return
	}

	limit, err := s.limiter.Check(ctx, email)
	if err != nil || limit.Allowed {
		return
	}

	details := map[string]any{"email": email, "attempts": limit.Attempts}
	if ip != "" {
		details["ip"] = ip
	}
	if security.SuspiciousUserAgent(userAgent) {
		details["user_agent"] = userAgent
	}
	s.recordActivity(ctx, "", "suspicious_activity_detected", details)

	slog.Warn("login lockout triggered",
		slog.String("email", email),
		slog.Int("attempts", limit.Attempts),
	)
}

// --- Password Reset ---

// InitiatePasswordReset creates a reset token and emails the reset link.
// Always returns nil for unknown emails to prevent enumeration.
func (s *authService) InitiatePasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if !security.ValidateEmail(email) {
		return apperror.NewValidation("invalid email address")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	// Generate a random token; only its hash touches the database.
	token, err := generateSessionToken()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("generating reset token: %w", err))
	}

	expiresAt := time.Now().UTC().Add(s.resetTokenTTL)
	if err := s.repo.CreateResetToken(ctx, user.ID, user.Email, hashToken(token), expiresAt); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing reset token: %w", err))
	}

	if s.mail == nil {
		// Token is stored either way; an operator can still hand the
		// user a link out of band.
		slog.Info("password reset requested but no mail sender is wired",
			slog.String("user_id", user.ID),
		)
		return nil
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"A password reset was requested for your Warning Bypass account.\n\n"+
			"Reset your password here: %s\n\n"+
			"This link expires in %d minutes. If you didn't request this, ignore this email.",
		link, int(s.resetTokenTTL.Minutes()))

	if err := s.mail.SendMail(ctx, []string{user.Email}, "Reset your Warning Bypass password", body); err != nil {
		slog.Error("failed to send reset email",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

// ValidateResetToken checks a reset token and returns the associated
// email so the form can display it.
func (s *authService) ValidateResetToken(ctx context.Context, token string) (string, error) {
	_, email, err := s.checkResetToken(ctx, token)
	return email, err
}

// ResetPassword sets a new password for the account behind a valid reset
// token, then burns the token and ends the lockout for that email.
func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	userID, email, err := s.checkResetToken(ctx, token)
	if err != nil {
		return err
	}

	if res := security.ValidatePassword(password); !res.Valid {
		return apperror.NewValidation(strings.Join(res.Errors, "; "))
	}

	hash, err := hashPassword(password)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}

	if err := s.repo.MarkResetTokenUsed(ctx, hashToken(token)); err != nil {
		slog.Warn("failed to mark reset token used", slog.Any("error", err))
	}
	if err := s.limiter.Reset(ctx, email); err != nil {
		slog.Warn("failed to reset login limiter", slog.Any("error", err))
	}

	s.recordActivity(ctx, userID, "password_changed", nil)

	slog.Info("password reset completed", slog.String("user_id", userID))
	return nil
}

// checkResetToken validates a token's existence, expiry, and single-use
// invariant. Returns the user ID and email on success.
func (s *authService) checkResetToken(ctx context.Context, token string) (string, string, error) {
	userID, email, expiresAt, usedAt, err := s.repo.FindResetToken(ctx, hashToken(token))
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return "", "", apperror.NewBadRequest("invalid or expired reset token")
		}
		return "", "", apperror.NewInternal(fmt.Errorf("finding reset token: %w", err))
	}
	if usedAt != nil {
		return "", "", apperror.NewBadRequest("this reset link has already been used")
	}
	if time.Now().After(expiresAt) {
		return "", "", apperror.NewBadRequest("invalid or expired reset token")
	}
	return userID, email, nil
}

// --- Cross-plugin helpers (all optional, nil-safe) ---

func (s *authService) recordActivity(ctx context.Context, userID, action string, details map[string]any) {
	if s.activity != nil {
		s.activity.Record(ctx, userID, action, details)
	}
}

func (s *authService) recordLoginStat(ctx context.Context, userID string) {
	if s.stats != nil {
		s.stats.RecordLogin(ctx, userID)
	}
}

func (s *authService) ensureProfile(ctx context.Context, userID, displayName string) {
	if s.profiles != nil {
		s.profiles.EnsureProfile(ctx, userID, displayName)
	}
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
// This format is compatible with most argon2 libraries and allows self-
// contained verification without separate salt storage.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Encode to the standard PHC string format.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
// Returns true if the password matches.
func verifyPassword(password, encodedHash string) bool {
	// Parse the encoded hash to extract parameters, salt, and hash.
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Compute the hash of the provided password with the same parameters.
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}

// --- Helpers ---

// normalizeEmail lowercases and trims an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken returns the hex-encoded SHA-256 of a token. Reset tokens are
// stored hashed so a database leak doesn't expose usable links.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
