package users

import "time"

// User is the local account created on first Google sign-in.
type User struct {
	ID        string    `json:"id"`
	GoogleID  string    `json:"googleId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is the profile asserted by the identity provider.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}
