package core

import "time"

// Nonce represents a single-use login challenge issued for a wallet address
type Nonce struct {
	Address   string    // Stellar account address the nonce was issued for
	Value     string    // Hex encoded random challenge
	ExpiresAt time.Time // When the nonce stops being accepted
}

// Session represents an authenticated wallet session
type Session struct {
	ID        string    // Unique session identifier, used as the token jti
	Address   string    // Stellar account address of the user
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session token expires
}

// User is a wallet owner known to the service
type User struct {
	Address   string     `db:"address" json:"address"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`

	Preferences *Preferences `db:"-" json:"preferences,omitempty"`
}

// Deactivated reports whether the user has been soft-deleted
func (u *User) Deactivated() bool {
	return u.DeletedAt != nil
}

// Preferences holds the per-user settings created alongside the user
type Preferences struct {
	Address               string    `db:"address" json:"-"`
	Currency              string    `db:"currency" json:"currency"`
	Language              string    `db:"language" json:"language"`
	BillReminders         bool      `db:"bill_reminders" json:"billReminders"`
	PaymentConfirmations  bool      `db:"payment_confirmations" json:"paymentConfirmations"`
	GoalUpdates           bool      `db:"goal_updates" json:"goalUpdates"`
	SecurityAlerts        bool      `db:"security_alerts" json:"securityAlerts"`
	TransactionSigning    bool      `db:"transaction_signing" json:"transactionSigning"`
	SessionTimeoutMinutes int       `db:"session_timeout_minutes" json:"sessionTimeoutMinutes"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

// DefaultPreferences returns the settings a new user starts with
func DefaultPreferences(address string) Preferences {
	return Preferences{
		Address:               address,
		Currency:              "USD",
		Language:              "en",
		BillReminders:         true,
		PaymentConfirmations:  true,
		GoalUpdates:           true,
		SecurityAlerts:        true,
		TransactionSigning:    true,
		SessionTimeoutMinutes: 30,
	}
}

// PreferencesPatch carries a partial preferences update; nil fields are left untouched
type PreferencesPatch struct {
	Currency              *string `json:"currency"`
	Language              *string `json:"language"`
	BillReminders         *bool   `json:"billReminders"`
	PaymentConfirmations  *bool   `json:"paymentConfirmations"`
	GoalUpdates           *bool   `json:"goalUpdates"`
	SecurityAlerts        *bool   `json:"securityAlerts"`
	TransactionSigning    *bool   `json:"transactionSigning"`
	SessionTimeoutMinutes *int    `json:"sessionTimeoutMinutes"`
}

// Apply copies the set fields of the patch onto p
func (patch PreferencesPatch) Apply(p *Preferences) {
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.BillReminders != nil {
		p.BillReminders = *patch.BillReminders
	}
	if patch.PaymentConfirmations != nil {
		p.PaymentConfirmations = *patch.PaymentConfirmations
	}
	if patch.GoalUpdates != nil {
		p.GoalUpdates = *patch.GoalUpdates
	}
	if patch.SecurityAlerts != nil {
		p.SecurityAlerts = *patch.SecurityAlerts
	}
	if patch.TransactionSigning != nil {
		p.TransactionSigning = *patch.TransactionSigning
	}
	if patch.SessionTimeoutMinutes != nil {
		p.SessionTimeoutMinutes = *patch.SessionTimeoutMinutes
	}
}
