package models

import "time"

// User mirrors the identity provider's user record. The ID is the opaque
// external id issued by the provider, so it is a string primary key rather
// than an auto-increment.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"index"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	Role      string    `json:"role" gorm:"default:'student'"` // student, educator
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
