package models

import (
	"time"

	"github.com/google/uuid"
)

// User maps an external identity onto the internal record that owns finance rows.
type User struct {
	ID          uuid.UUID `json:"id"`
	FirebaseUID string    `json:"firebase_uid"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Credential is an email/password identity held by the built-in identity provider.
type Credential struct {
	UID          uuid.UUID `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
