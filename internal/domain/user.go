package domain

import "time"

type User struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	School    string    `json:"school"`
	Points    int       `json:"points"`
	Role      Role      `json:"role"`
	Level     string    `json:"level,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is what the auth gate attaches to an authenticated request.
type Identity struct {
	UserID uint
	Role   Role
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}
