package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/config"
)

// oauthStateKeyPrefix namespaces pending OAuth flows in Redis.
const oauthStateKeyPrefix = "oauthstate:"

// oauthStateTTL bounds how long a user can sit on the Discord consent
// screen before the flow is abandoned.
const oauthStateTTL = 10 * time.Minute

// discordUserURL is Discord's identity endpoint.
const discordUserURL = "https://discord.com/api/users/@me"

// discordEndpoint is Discord's OAuth2 endpoint pair.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// OAuthService runs the Discord authorization-code flow with PKCE.
// Pending state lives in Redis so the flow survives a server restart and
// works across instances.
type OAuthService interface {
	// Begin starts a flow and returns the Discord consent URL.
	Begin(ctx context.Context) (string, error)

	// Complete exchanges the callback code for an identity, provisions or
	// links the account, and opens a session.
	Complete(ctx context.Context, state, code string) (*AuthResult, error)
}

// oauthService implements OAuthService on top of the auth service's
// session machinery.
type oauthService struct {
	cfg    *oauth2.Config
	redis  *redis.Client
	repo   UserRepository
	auth   *authService
	httpDo *http.Client
}

// NewOAuthService creates the Discord OAuth service. The auth argument
// must be the service returned by NewAuthService.
func NewOAuthService(cfg config.DiscordConfig, rdb *redis.Client, repo UserRepository, auth AuthService) OAuthService {
	svc, _ := auth.(*authService)
	return &oauthService{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint:     discordEndpoint,
		},
		redis:  rdb,
		repo:   repo,
		auth:   svc,
		httpDo: &http.Client{Timeout: 10 * time.Second},
	}
}

// pendingFlow is the Redis value for an in-progress OAuth flow.
type pendingFlow struct {
	Verifier string `json:"verifier"`
}

// Begin generates state and a PKCE verifier, stores them in Redis, and
// returns the consent URL.
func (s *oauthService) Begin(ctx context.Context) (string, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	data, err := json.Marshal(pendingFlow{Verifier: verifier})
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("marshaling oauth state: %w", err))
	}
	if err := s.redis.Set(ctx, oauthStateKeyPrefix+state, data, oauthStateTTL).Err(); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("storing oauth state: %w", err))
	}

	return s.cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// Complete validates the state, exchanges the code, fetches the Discord
// identity, and signs the user in -- provisioning an account on first
// sight, or linking the Discord identity to an existing email account.
func (s *oauthService) Complete(ctx context.Context, state, code string) (*AuthResult, error) {
	if state == "" || code == "" {
		return nil, apperror.NewBadRequest("missing state or code")
	}

	// Single-use state: GetDel rejects replays.
	data, err := s.redis.GetDel(ctx, oauthStateKeyPrefix+state).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewBadRequest("login attempt expired, please try again")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading oauth state: %w", err))
	}

	var flow pendingFlow
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling oauth state: %w", err))
	}

	token, err := s.cfg.Exchange(ctx, code, oauth2.VerifierOption(flow.Verifier))
	if err != nil {
		return nil, apperror.NewUnauthorized("Discord login failed")
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, apperror.NewBadRequest("your Discord account has no verified email")
	}

	user, err := s.findOrProvision(ctx, profile)
	if err != nil {
		return nil, err
	}

	sessionToken, err := s.auth.createSession(ctx, user)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	s.auth.metrics.RecordLoginSuccess()
	s.auth.recordActivity(ctx, user.ID, "login", map[string]any{"provider": ProviderDiscord})
	s.auth.recordLoginStat(ctx, user.ID)
	if s.auth.profiles != nil {
		s.auth.profiles.SyncDiscord(ctx, user.ID, *profile)
	}

	slog.Info("user logged in via Discord",
		slog.String("user_id", user.ID),
		slog.String("discord_id", profile.ID),
	)

	return &AuthResult{Token: sessionToken, User: user, Action: ActionSignIn}, nil
}

// fetchProfile retrieves the Discord identity with the freshly issued
// access token.
func (s *oauthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*DiscordProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discordUserURL, nil)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("building identity request: %w", err))
	}
	token.SetAuthHeader(req)

	resp, err := s.httpDo.Do(req)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("fetching Discord identity: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperror.NewInternal(fmt.Errorf("Discord identity returned %d: %s", resp.StatusCode, body))
	}

	var profile DiscordProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("decoding Discord identity: %w", err))
	}

	return &profile, nil
}

// findOrProvision resolves the Discord identity to a local account:
// provider match first, then email match (linking the identity), then a
// brand-new passwordless account.
func (s *oauthService) findOrProvision(ctx context.Context, profile *DiscordProfile) (*User, error) {
	user, err := s.repo.FindByProviderID(ctx, ProviderDiscord, profile.ID)
	if err == nil {
		return user, nil
	}
	if !isNotFound(err) {
		return nil, apperror.NewInternal(fmt.Errorf("finding user by provider: %w", err))
	}

	email := normalizeEmail(profile.Email)
	user, err = s.repo.FindByEmail(ctx, email)
	if err == nil {
		if linkErr := s.repo.LinkProvider(ctx, user.ID, ProviderDiscord, profile.ID); linkErr != nil {
			return nil, apperror.NewInternal(fmt.Errorf("linking Discord identity: %w", linkErr))
		}
		providerID := profile.ID
		user.Provider = ProviderDiscord
		user.ProviderID = &providerID
		return user, nil
	}
	if !isNotFound(err) {
		return nil, apperror.NewInternal(fmt.Errorf("finding user by email: %w", err))
	}

	providerID := profile.ID
	user = &User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: profile.DisplayName(),
		Provider:    ProviderDiscord,
		ProviderID:  &providerID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	s.auth.metrics.RecordSignup()
	s.auth.recordActivity(ctx, user.ID, "account_created", map[string]any{"provider": ProviderDiscord})

	return user, nil
}

// isNotFound reports whether err is an apperror with code 404.
func isNotFound(err error) bool {
	appErr, ok := err.(*apperror.AppError)
	return ok && appErr.Code == 404
}
