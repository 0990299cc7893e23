package model

import "time"

// Theme preferences form a closed set.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ValidTheme reports whether s names a known theme preference.
func ValidTheme(s string) bool {
	switch s {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// User represents an account row in the `users` table.  Role holds one
// of the roles.Global values.  PasswordHash never leaves the server; the
// json tag keeps it out of every response.
type User struct {
	ID              uint64    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	ThemePreference string    `json:"themePreference"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
