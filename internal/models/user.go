package models

import "time"

// Theme is a user's UI preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultCurrency is assigned to new users and to entries created without one.
const DefaultCurrency = "CNY"

// User represents the user model in the database
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	DisplayName         string     `json:"display_name"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Theme               Theme      `gorm:"size:20;not null;default:light" json:"theme"`
	DefaultCurrency     string     `gorm:"size:3;not null;default:CNY" json:"default_currency"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	Entries             []Entry    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Preferences is the per-user session configuration handed to request handlers.
type Preferences struct {
	Theme           Theme  `json:"theme"`
	DefaultCurrency string `json:"default_currency"`
}

// Preferences returns the user's stored preferences with defaults filled in.
func (u *User) Preferences() Preferences {
	p := Preferences{Theme: u.Theme, DefaultCurrency: u.DefaultCurrency}
	if p.Theme == "" {
		p.Theme = ThemeLight
	}
	if p.DefaultCurrency == "" {
		p.DefaultCurrency = DefaultCurrency
	}
	return p
}
