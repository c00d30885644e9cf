// Package models holds the domain entities shared by the data store and the
// provider implementations. All entities are immutable-by-replacement:
// updates build a new value that replaces the stored one.
package models

import "time"

// User is a creator account. ID is assigned once at creation and never
// reused; username/email uniqueness is pre-checked by the provider at
// creation. PasswordHash persists with the record; providers strip it
// before returning users to callers.
type User struct {
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Tagline      string            `json:"tagline,omitempty"`
	Bio          string            `json:"bio,omitempty"`
	ProfileImage string            `json:"profile_image,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
	PasswordHash string            `json:"password_hash,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
