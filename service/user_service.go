package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/metrics"
	"github.com/layer-3/remitwise/ports"
	"github.com/rs/zerolog"
)

// DefaultRetentionDays is how long a deactivated account is kept before it
// becomes eligible for purging.
const DefaultRetentionDays = 90

const (
	minSessionTimeout = 5
	maxSessionTimeout = 1440
	maxLanguageLength = 16
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// UserService manages the user lifecycle: soft deletion, reactivation,
// retention purging and per-user preferences.
type UserService struct {
	users    ports.UserRepository
	eventPub ports.EventPublisher
	logger   zerolog.Logger
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users ports.UserRepository, eventPub ports.EventPublisher, logger zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		eventPub: eventPub,
		logger:   logger.With().Str("component", "users").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Deactivate soft-deletes the user and returns the deactivation time
func (s *UserService) Deactivate(ctx context.Context, address string) (time.Time, error) {
	at := s.now().Truncate(time.Microsecond)
	if err := s.users.SetDeletedAt(ctx, address, at); err != nil {
		return time.Time{}, err
	}

	metrics.RecordDeactivation()
	s.logger.Info().Str("address", address).Msg("user deactivated")

	if err := s.eventPub.PublishUserDeactivated(ctx, address); err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("failed to publish deactivation event")
	}

	return at, nil
}

// Reactivate clears the soft deletion of a user
func (s *UserService) Reactivate(ctx context.Context, address string) error {
	if err := s.users.ClearDeletedAt(ctx, address); err != nil {
		return err
	}

	s.logger.Info().Str("address", address).Msg("user reactivated")

	if err := s.eventPub.PublishUserReactivated(ctx, address); err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("failed to publish reactivation event")
	}

	return nil
}

// IsDeactivated reports whether a known user has been soft-deleted
func (s *UserService) IsDeactivated(ctx context.Context, address string) (bool, error) {
	user, err := s.users.GetIncludingDeactivated(ctx, address)
	if err != nil {
		return false, err
	}
	return user.Deactivated(), nil
}

func (s *UserService) GetActive(ctx context.Context, address string) (*core.User, error) {
	return s.users.GetActive(ctx, address)
}

func (s *UserService) ListActive(ctx context.Context) ([]core.User, error) {
	return s.users.ListActive(ctx)
}

func (s *UserService) CountActive(ctx context.Context) (int, error) {
	return s.users.CountActive(ctx)
}

// GetIncludingDeactivated is for administrative callers only
func (s *UserService) GetIncludingDeactivated(ctx context.Context, address string) (*core.User, error) {
	return s.users.GetIncludingDeactivated(ctx, address)
}

// ListIncludingDeactivated is for administrative callers only
func (s *UserService) ListIncludingDeactivated(ctx context.Context) ([]core.User, error) {
	return s.users.ListIncludingDeactivated(ctx)
}

// Profile returns the active user with its preferences attached
func (s *UserService) Profile(ctx context.Context, address string) (*core.User, error) {
	user, err := s.users.GetActive(ctx, address)
	if err != nil {
		return nil, err
	}

	prefs, err := s.users.GetPreferences(ctx, address)
	if err != nil {
		return nil, err
	}
	user.Preferences = prefs

	return user, nil
}

func (s *UserService) Preferences(ctx context.Context, address string) (*core.Preferences, error) {
	return s.users.GetPreferences(ctx, address)
}

// UpdatePreferences validates and applies a partial preferences update
func (s *UserService) UpdatePreferences(ctx context.Context, address string, patch core.PreferencesPatch) (*core.Preferences, error) {
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	prefs, err := s.users.GetPreferences(ctx, address)
	if err != nil {
		return nil, err
	}

	patch.Apply(prefs)

	if err := s.users.UpdatePreferences(ctx, prefs); err != nil {
		return nil, err
	}

	return prefs, nil
}

func validatePatch(patch *core.PreferencesPatch) error {
	if patch.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*patch.Currency))
		if !currencyPattern.MatchString(currency) {
			return core.InvalidInput("currency must be a 3-letter ISO 4217 code")
		}
		patch.Currency = &currency
	}
	if patch.Language != nil {
		language := strings.TrimSpace(*patch.Language)
		if language == "" || len(language) > maxLanguageLength {
			return core.InvalidInput("language must be a non-empty language tag")
		}
		patch.Language = &language
	}
	if patch.SessionTimeoutMinutes != nil {
		minutes := *patch.SessionTimeoutMinutes
		if minutes < minSessionTimeout || minutes > maxSessionTimeout {
			return core.InvalidInput(fmt.Sprintf("sessionTimeoutMinutes must be between %d and %d", minSessionTimeout, maxSessionTimeout))
		}
	}
	return nil
}

// PurgeCandidates lists deactivated users whose retention period has
// elapsed, without deleting anything.
func (s *UserService) PurgeCandidates(ctx context.Context, retentionDays int) ([]core.User, error) {
	cutoff, err := s.cutoff(retentionDays)
	if err != nil {
		return nil, err
	}
	return s.users.ListDeactivatedBefore(ctx, cutoff)
}

// PurgeEligible permanently deletes deactivated users whose retention period
// has elapsed and returns their addresses.
func (s *UserService) PurgeEligible(ctx context.Context, retentionDays int) ([]string, error) {
	cutoff, err := s.cutoff(retentionDays)
	if err != nil {
		return nil, err
	}

	candidates, err := s.users.ListDeactivatedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	purged := make([]string, 0, len(candidates))
	for _, user := range candidates {
		// Purge re-checks the cutoff so a user reactivated meanwhile survives
		ok, err := s.users.Purge(ctx, user.Address, cutoff)
		if err != nil {
			return purged, fmt.Errorf("purging %s: %w", user.Address, err)
		}
		if !ok {
			continue
		}

		purged = append(purged, user.Address)
		if err := s.eventPub.PublishUserPurged(ctx, user.Address); err != nil {
			s.logger.Warn().Err(err).Str("address", user.Address).Msg("failed to publish purge event")
		}
	}

	metrics.RecordPurged(len(purged))
	s.logger.Info().Int("purged", len(purged)).Int("retentionDays", retentionDays).Msg("purge finished")

	return purged, nil
}

func (s *UserService) cutoff(retentionDays int) (time.Time, error) {
	if retentionDays < 1 {
		return time.Time{}, core.InvalidInput("retentionDays must be a positive integer")
	}
	return s.now().AddDate(0, 0, -retentionDays), nil
}
