package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/warningbypass/warningweb/internal/apperror"
	"github.com/warningbypass/warningweb/internal/config"
	"github.com/warningbypass/warningweb/internal/plugins/auth"
	"github.com/warningbypass/warningweb/internal/security"
	"github.com/warningbypass/warningweb/internal/storage"
)

const (
	maxDisplayNameLength = 60
	maxBioLength         = 500

	discordCDNBase = "https://cdn.discordapp.com"

	mirrorTimeout = 10 * time.Second
)

// allowedAvatarTypes whitelists upload content types. Keys are the exact
// Content-Type values accepted from clients.
var allowedAvatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ProfileService defines the business logic contract for profiles.
type ProfileService interface {
	// Get returns the user's profile, lazily creating it from the
	// session display name when no row exists yet.
	Get(ctx context.Context, userID, displayName string) (*Profile, error)

	Update(ctx context.Context, userID string, input UpdateInput) (*Profile, error)

	// UploadAvatar stores a user-supplied avatar image.
	UploadAvatar(ctx context.Context, userID string, r io.Reader, size int64, contentType string) error

	// ServeAvatar streams the stored avatar. The returned reader must be
	// closed by the caller.
	ServeAvatar(ctx context.Context, userID string) (io.ReadCloser, string, error)
}

// profileService implements ProfileService and the auth-side
// ProfileSyncer contract.
type profileService struct {
	repo     ProfileRepository
	store    *storage.MinioClient
	activity auth.ActivityRecorder

	maxAvatarSize int64
	mirror        *http.Client
}

// NewProfileService creates the profile service. store may be nil when
// object storage is not configured; avatar uploads are then rejected and
// Discord avatars fall back to CDN URLs.
func NewProfileService(repo ProfileRepository, store *storage.MinioClient, activity auth.ActivityRecorder, cfg config.StorageConfig) ProfileService {
	mirrorCfg := safeurl.GetConfigBuilder().
		SetTimeout(mirrorTimeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()

	return &profileService{
		repo:          repo,
		store:         store,
		activity:      activity,
		maxAvatarSize: cfg.MaxAvatarSize,
		mirror:        safeurl.Client(mirrorCfg).Client,
	}
}

// Get returns the profile for userID, creating it on first access.
func (s *profileService) Get(ctx context.Context, userID, displayName string) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !isNotFound(err) {
		return nil, apperror.NewInternal(err)
	}

	name := security.SanitizeInput(displayName)
	if name == "" {
		name = "Member"
	}
	if err := s.repo.CreateIfAbsent(ctx, &Profile{UserID: userID, DisplayName: name}); err != nil {
		return nil, apperror.NewInternal(err)
	}
	s.record(ctx, userID, "profile_created", nil)

	p, err = s.repo.Get(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return p, nil
}

// Update validates and persists the editable profile fields.
func (s *profileService) Update(ctx context.Context, userID string, input UpdateInput) (*Profile, error) {
	name := security.SanitizeInput(input.DisplayName)
	if name == "" {
		return nil, apperror.NewValidation("display name is required")
	}
	if len([]rune(name)) > maxDisplayNameLength {
		return nil, apperror.NewValidation(fmt.Sprintf("display name must be at most %d characters", maxDisplayNameLength))
	}

	bio := security.SanitizeHTML(strings.TrimSpace(input.Bio))
	if len([]rune(bio)) > maxBioLength {
		return nil, apperror.NewValidation(fmt.Sprintf("bio must be at most %d characters", maxBioLength))
	}

	website := strings.TrimSpace(input.Website)
	if website != "" && !security.IsSecureURL(website) {
		return nil, apperror.NewValidation("website must be an https URL")
	}
	location := security.SanitizeInput(input.Location)

	fields := UpdateInput{DisplayName: name, Bio: bio, Website: website, Location: location}
	if err := s.repo.Update(ctx, userID, fields); err != nil {
		if isNotFound(err) {
			// First write for a user whose GET never ran.
			if cerr := s.repo.CreateIfAbsent(ctx, &Profile{UserID: userID, DisplayName: name, Bio: bio}); cerr != nil {
				return nil, apperror.NewInternal(cerr)
			}
			if uerr := s.repo.Update(ctx, userID, fields); uerr != nil {
				return nil, apperror.NewInternal(uerr)
			}
		} else {
			return nil, apperror.NewInternal(err)
		}
	}
	s.record(ctx, userID, "profile_updated", nil)

	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return p, nil
}

// UploadAvatar validates the image and stores it under a per-user key.
func (s *profileService) UploadAvatar(ctx context.Context, userID string, r io.Reader, size int64, contentType string) error {
	if s.store == nil {
		return apperror.NewBadRequest("avatar storage is not configured")
	}

	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return apperror.NewValidation("avatar must be a PNG, JPEG, or WebP image")
	}
	if size <= 0 || size > s.maxAvatarSize {
		return apperror.NewValidation(fmt.Sprintf("avatar must be between 1 byte and %d bytes", s.maxAvatarSize))
	}

	key := avatarKey(userID, ext)
	if err := s.store.Put(ctx, key, io.LimitReader(r, s.maxAvatarSize), size, contentType); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing avatar: %w", err))
	}
	if err := s.repo.SetAvatarKey(ctx, userID, key); err != nil {
		return apperror.NewInternal(err)
	}
	s.record(ctx, userID, "profile_updated", map[string]any{"field": "avatar"})
	return nil
}

// ServeAvatar streams the stored avatar object.
func (s *profileService) ServeAvatar(ctx context.Context, userID string) (io.ReadCloser, string, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", apperror.NewNotFound("avatar not found")
		}
		return nil, "", apperror.NewInternal(err)
	}
	if p.AvatarKey == nil || s.store == nil {
		return nil, "", apperror.NewNotFound("avatar not found")
	}

	rc, contentType, err := s.store.Get(ctx, *p.AvatarKey)
	if err != nil {
		return nil, "", apperror.NewNotFound("avatar not found")
	}
	return rc, contentType, nil
}

// EnsureProfile implements auth.ProfileSyncer. Failures are logged, never
// surfaced -- login must not break on profile bookkeeping.
func (s *profileService) EnsureProfile(ctx context.Context, userID, displayName string) {
	name := security.SanitizeInput(displayName)
	if name == "" {
		name = "Member"
	}
	if err := s.repo.CreateIfAbsent(ctx, &Profile{UserID: userID, DisplayName: name}); err != nil {
		slog.Warn("profile creation failed", "user_id", userID, "error", err)
	}
}

// SyncDiscord implements auth.ProfileSyncer. It records the Discord
// identity and mirrors the CDN avatar into object storage when available.
func (s *profileService) SyncDiscord(ctx context.Context, userID string, dp auth.DiscordProfile) {
	s.EnsureProfile(ctx, userID, dp.DisplayName())

	if err := s.repo.SetDiscord(ctx, userID, dp.ID, dp.Username); err != nil {
		slog.Warn("discord identity sync failed", "user_id", userID, "error", err)
	}

	if dp.Avatar == "" {
		return
	}
	avatarURL := fmt.Sprintf("%s/avatars/%s/%s.png", discordCDNBase, dp.ID, dp.Avatar)

	if s.store == nil {
		if err := s.repo.SetAvatarURL(ctx, userID, avatarURL); err != nil {
			slog.Warn("discord avatar url sync failed", "user_id", userID, "error", err)
		}
		return
	}
	if err := s.mirrorAvatar(ctx, userID, avatarURL); err != nil {
		slog.Warn("discord avatar mirror failed", "user_id", userID, "error", err)
		// Fall back to the CDN URL so the avatar still renders.
		if uerr := s.repo.SetAvatarURL(ctx, userID, avatarURL); uerr != nil {
			slog.Warn("discord avatar url sync failed", "user_id", userID, "error", uerr)
		}
	}
}

// mirrorAvatar downloads the Discord CDN image and stores a copy.
func (s *profileService) mirrorAvatar(ctx context.Context, userID, avatarURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.mirror.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching avatar", resp.StatusCode)
	}

	key := avatarKey(userID, ".png")
	if err := s.store.Put(ctx, key, io.LimitReader(resp.Body, s.maxAvatarSize), -1, "image/png"); err != nil {
		return fmt.Errorf("storing mirrored avatar: %w", err)
	}
	return s.repo.SetAvatarKey(ctx, userID, key)
}

func (s *profileService) record(ctx context.Context, userID, action string, details map[string]any) {
	if s.activity != nil {
		s.activity.Record(ctx, userID, action, details)
	}
}

func avatarKey(userID, ext string) string {
	return "avatars/" + userID + ext
}

func isNotFound(err error) bool {
	appErr, ok := err.(*apperror.AppError)
	return ok && appErr.Code == http.StatusNotFound
}
