package models

import "time"

// Certificate issuance states. Monotonic: NotRequested < Provisional < Final.
// Writes compare-and-swap on this tag so a delayed provisional retry can
// never undo a final artifact.
const (
	CertificateNotRequested = 0
	CertificateProvisional  = 1
	CertificateFinal        = 2
)

// CourseProgress is the per-user-per-course record of lecture completion,
// quiz outcome and certificate issuance.
type CourseProgress struct {
	ID               uint       `json:"id" gorm:"primarykey"`
	UserID           string     `json:"user_id" gorm:"uniqueIndex:idx_progress_user_course;not null"`
	CourseID         uint       `json:"course_id" gorm:"uniqueIndex:idx_progress_user_course;not null"`
	QuizGraded       bool       `json:"quiz_graded" gorm:"default:false"`
	QuizPassed       bool       `json:"quiz_passed" gorm:"default:false"`
	IsCompleted      bool       `json:"is_completed" gorm:"default:false"` // sticky once true
	CompletedAt      *time.Time `json:"completed_at"`
	CertificateURL   string     `json:"certificate_url"`
	CertificateState int        `json:"certificate_state" gorm:"default:0"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LectureCompletion records one completed lecture for a user. The unique
// index gives insert-if-absent set semantics.
type LectureCompletion struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_lecture_completion;not null"`
	CourseID  uint      `json:"course_id" gorm:"uniqueIndex:idx_lecture_completion;not null"`
	LectureID uint      `json:"lecture_id" gorm:"uniqueIndex:idx_lecture_completion;not null"`
	CreatedAt time.Time `json:"created_at"`
}
