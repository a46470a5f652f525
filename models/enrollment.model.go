package models

import "time"

// Enrollment is the durable user-course relation granting content access.
// The composite unique index makes repeated inserts set-union semantics:
// a replayed payment webhook can never enroll a user twice.
type Enrollment struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID  uint      `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CreatedAt time.Time `json:"created_at"`
}
