package domain

import "time"

// User is a Discord account referenced by memberships or requests. Profile
// fields are a cache filled by the refresh worker.
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Username    string     `json:"username"`
	AvatarHash  string     `json:"avatar_hash,omitempty"`
	AvatarURL   string     `json:"avatar_url"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

// DiscordProfile is a user profile from the Discord API.
type DiscordProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	Discriminator string `json:"discriminator"`
	AvatarHash    string `json:"avatar_hash"`
	AvatarURL     string `json:"avatar_url"`
}

// SessionUser is what the login flow keeps in the session.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Admin    bool   `json:"admin"`
}
