package models

// Role is the stored role of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Level is the resolved authorization tier. Levels are ordered.
type Level int

const (
	LevelAnonymous Level = iota
	LevelUser
	LevelModerator
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelModerator:
		return "moderator"
	case LevelAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// EffectiveLevel combines the role with the staff and superuser flags.
// A nil user is anonymous.
func (u *User) EffectiveLevel() Level {
	switch {
	case u == nil:
		return LevelAnonymous
	case u.Role == RoleAdmin || u.IsStaff || u.IsSuperuser:
		return LevelAdmin
	case u.Role == RoleModerator:
		return LevelModerator
	default:
		return LevelUser
	}
}
