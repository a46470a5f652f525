package models

import "time"

// Feedback is an append-only testimonial left by a visitor
type Feedback struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email"`
	Message      string    `json:"message" gorm:"not null"`
	Rating       int       `json:"rating" gorm:"default:5"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}
