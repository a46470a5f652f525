package models

import "time"

// Purchase status values. Transitions are pending -> completed or
// pending -> failed; completion is sticky and wins any race.
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

// Purchase is a single attempt to buy course access, tracked independently
// of enrollment. The ID doubles as the correlation metadata embedded in the
// payment gateway's checkout session.
type Purchase struct {
	ID                string     `json:"id" gorm:"primaryKey"` // uuid
	CourseID          uint       `json:"course_id" gorm:"index;not null"`
	UserID            string     `json:"user_id" gorm:"index;not null"`
	AmountCents       int64      `json:"amount_cents" gorm:"not null"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status" gorm:"index;default:'pending'"`
	CheckoutSessionID string     `json:"checkout_session_id"`
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
