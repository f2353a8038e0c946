package models

import "time"

// UserProfile is the durable profile record kept for each authenticated
// identity. AccountID doubles as the record key and equals the identity
// provider's user ID for the account. At most one profile exists per email;
// the database enforces this with a unique index.
type UserProfile struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}
