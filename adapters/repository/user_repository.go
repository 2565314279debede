package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/ports"
)

const userColumns = `address, created_at, updated_at, deleted_at`

const preferenceColumns = `p.address, p.currency, p.language, p.bill_reminders, p.payment_confirmations,
	p.goal_updates, p.security_alerts, p.transaction_signing, p.session_timeout_minutes, p.updated_at`

// UserRepository is the sqlx implementation of ports.UserRepository
type UserRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewUserRepository creates a repository on top of an open database
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepository{db: db, now: clock}
}

func clock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (r *UserRepository) Upsert(ctx context.Context, address string) (*core.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now()
	_, err = tx.ExecContext(ctx, tx.Rebind(`insert into users (address, created_at, updated_at)
		values (?, ?, ?) on conflict (address) do nothing`), address, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	prefs := core.DefaultPreferences(address)
	prefs.UpdatedAt = now
	_, err = tx.NamedExecContext(ctx, `insert into user_preferences
		(address, currency, language, bill_reminders, payment_confirmations, goal_updates,
		 security_alerts, transaction_signing, session_timeout_minutes, updated_at)
		values (:address, :currency, :language, :bill_reminders, :payment_confirmations, :goal_updates,
		 :security_alerts, :transaction_signing, :session_timeout_minutes, :updated_at)
		on conflict (address) do nothing`, &prefs)
	if err != nil {
		return nil, fmt.Errorf("inserting preferences: %w", err)
	}

	user := &core.User{}
	err = tx.GetContext(ctx, user, tx.Rebind(`select `+userColumns+` from users where address = ?`), address)
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing upsert: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetActive(ctx context.Context, address string) (*core.User, error) {
	return r.get(ctx, `select `+userColumns+` from users where address = ? and deleted_at is null`, address)
}

func (r *UserRepository) GetIncludingDeactivated(ctx context.Context, address string) (*core.User, error) {
	return r.get(ctx, `select `+userColumns+` from users where address = ?`, address)
}

func (r *UserRepository) get(ctx context.Context, query, address string) (*core.User, error) {
	user := &core.User{}
	err := r.db.GetContext(ctx, user, r.db.Rebind(query), address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]core.User, error) {
	return r.list(ctx, `select `+userColumns+` from users where deleted_at is null order by created_at, address`)
}

func (r *UserRepository) ListIncludingDeactivated(ctx context.Context) ([]core.User, error) {
	return r.list(ctx, `select `+userColumns+` from users order by created_at, address`)
}

func (r *UserRepository) ListDeactivatedBefore(ctx context.Context, cutoff time.Time) ([]core.User, error) {
	return r.list(ctx, `select `+userColumns+` from users
		where deleted_at is not null and deleted_at < ? order by deleted_at, address`, cutoff.UTC())
}

func (r *UserRepository) list(ctx context.Context, query string, args ...interface{}) ([]core.User, error) {
	users := []core.User{}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `select count(*) from users where deleted_at is null`); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) SetDeletedAt(ctx context.Context, address string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`update users set deleted_at = ?, updated_at = ?
		where address = ? and deleted_at is null`), at.UTC(), r.now(), address)
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}

	return r.explainNoop(ctx, res, address, core.ErrUserAlreadyDeactivated)
}

func (r *UserRepository) ClearDeletedAt(ctx context.Context, address string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`update users set deleted_at = null, updated_at = ?
		where address = ? and deleted_at is not null`), r.now(), address)
	if err != nil {
		return fmt.Errorf("reactivating user: %w", err)
	}

	return r.explainNoop(ctx, res, address, core.ErrUserNotDeactivated)
}

// explainNoop turns a conditional update that touched no row into either
// ErrUserNotFound or the given state error.
func (r *UserRepository) explainNoop(ctx context.Context, res sql.Result, address string, stateErr error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	if _, err := r.GetIncludingDeactivated(ctx, address); err != nil {
		return err
	}
	return stateErr
}

func (r *UserRepository) Purge(ctx context.Context, address string, cutoff time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`delete from users
		where address = ? and deleted_at is not null and deleted_at < ?`), address, cutoff.UTC())
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`delete from user_preferences where address = ?`), address); err != nil {
		return false, fmt.Errorf("deleting preferences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing purge: %w", err)
	}

	return true, nil
}

func (r *UserRepository) GetPreferences(ctx context.Context, address string) (*core.Preferences, error) {
	prefs := &core.Preferences{}
	err := r.db.GetContext(ctx, prefs, r.db.Rebind(`select `+preferenceColumns+`
		from user_preferences p join users u on u.address = p.address
		where p.address = ? and u.deleted_at is null`), address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching preferences: %w", err)
	}
	return prefs, nil
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, prefs *core.Preferences) error {
	prefs.UpdatedAt = r.now()
	res, err := r.db.NamedExecContext(ctx, `update user_preferences set
		currency = :currency, language = :language, bill_reminders = :bill_reminders,
		payment_confirmations = :payment_confirmations, goal_updates = :goal_updates,
		security_alerts = :security_alerts, transaction_signing = :transaction_signing,
		session_timeout_minutes = :session_timeout_minutes, updated_at = :updated_at
		where address = :address
		and exists (select 1 from users u where u.address = :address and u.deleted_at is null)`, prefs)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows != 1 {
		return core.ErrUserNotFound
	}
	return nil
}
