// Package models holds the plain data records shared by repositories,
// services and transports.
package models

import "time"

type User struct {
	ID          int64      `db:"id"`
	Username    string     `db:"username"`
	Email       string     `db:"email"`
	FirstName   string     `db:"first_name"`
	LastName    string     `db:"last_name"`
	Bio         string     `db:"bio"`
	Role        Role       `db:"role"`
	IsActive    bool       `db:"is_active"`
	IsStaff     bool       `db:"is_staff"`
	IsSuperuser bool       `db:"is_superuser"`
	LastLogin   *time.Time `db:"last_login"`
	DateJoined  time.Time  `db:"date_joined"`
}

// IsAdmin reports whether the user resolves to the admin level.
func (u *User) IsAdmin() bool {
	return u != nil && u.EffectiveLevel() == LevelAdmin
}

// IsModerator reports whether the user carries the moderator role.
func (u *User) IsModerator() bool {
	return u != nil && u.EffectiveLevel() == LevelModerator
}

// UserPatch lists the profile fields a PATCH may change. Nil means "keep".
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *Role
}
