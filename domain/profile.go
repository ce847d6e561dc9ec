package domain

import "time"

// Profile is the public view of a member.
type Profile struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// Member is the backend's stored account.
type Member struct {
	ID           int64
	Username     string
	PasswordHash string
	// TokenID is the id of the only token currently accepted for this
	// member. Logging in rotates it.
	TokenID   string
	CreatedAt time.Time
}

func (m Member) Profile() Profile {
	return Profile{ID: m.ID, Username: m.Username, CreatedAt: m.CreatedAt}
}

// AuthGrant is a freshly issued token and the member it belongs to.
type AuthGrant struct {
	Token  string
	Member Member
}
