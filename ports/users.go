package ports

import (
	"context"
	"time"

	"github.com/layer-3/remitwise/core"
)

// UserRepository persists users. Every read method filters out deactivated
// users unless its name says otherwise.
type UserRepository interface {
	// Upsert creates the user with default preferences if absent; an existing
	// user is left untouched. It returns the stored record.
	Upsert(ctx context.Context, address string) (*core.User, error)

	GetActive(ctx context.Context, address string) (*core.User, error)
	ListActive(ctx context.Context) ([]core.User, error)
	CountActive(ctx context.Context) (int, error)

	// GetIncludingDeactivated is the administrative override of GetActive
	GetIncludingDeactivated(ctx context.Context, address string) (*core.User, error)
	ListIncludingDeactivated(ctx context.Context) ([]core.User, error)

	// SetDeletedAt sets deleted_at only if it is currently null
	SetDeletedAt(ctx context.Context, address string, at time.Time) error
	// ClearDeletedAt sets deleted_at back to null
	ClearDeletedAt(ctx context.Context, address string) error

	ListDeactivatedBefore(ctx context.Context, cutoff time.Time) ([]core.User, error)
	Purge(ctx context.Context, address string, cutoff time.Time) (bool, error)

	GetPreferences(ctx context.Context, address string) (*core.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs *core.Preferences) error
}
