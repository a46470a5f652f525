package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course represents a learning course
type Course struct {
	gorm.Model
	Title           string `json:"title"`
	Description     string `json:"description"`
	EducatorID      string `json:"educator_id" gorm:"index;not null"`
	PriceCents      int64  `json:"price_cents" gorm:"default:0"` // price in currency minor units
	DiscountPercent int    `json:"discount_percent" gorm:"default:0"`
	Currency        string `json:"currency" gorm:"default:'usd'"`
	ThumbnailURL    string `json:"thumbnail_url"`
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
}

// Chapter is an ordered section within a course
type Chapter struct {
	gorm.Model
	CourseID   uint   `json:"course_id" gorm:"index;not null"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

// Lecture is a single content unit within a chapter
type Lecture struct {
	gorm.Model
	ChapterID       uint   `json:"chapter_id" gorm:"index;not null"`
	CourseID        uint   `json:"course_id" gorm:"index;not null"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes" gorm:"default:0"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"`
}

// QuizQuestion is one question of a course's quiz. Options holds the answer
// texts as a JSON array; CorrectAnswerIndex points into that array.
type QuizQuestion struct {
	gorm.Model
	CourseID           uint           `json:"course_id" gorm:"index;not null"`
	Question           string         `json:"question"`
	Options            datatypes.JSON `json:"options"`
	CorrectAnswerIndex int            `json:"-"`
	OrderIndex         int            `json:"order_index" gorm:"default:0"`
}

// OptionList decodes the stored option texts.
func (q *QuizQuestion) OptionList() []string {
	var opts []string
	_ = json.Unmarshal(q.Options, &opts)
	return opts
}

// OptionIndex resolves an answer text to its option index, -1 if no option matches.
func (q *QuizQuestion) OptionIndex(answer string) int {
	for i, opt := range q.OptionList() {
		if strings.TrimSpace(opt) == strings.TrimSpace(answer) {
			return i
		}
	}
	return -1
}

// CourseRating holds one rating per user per course, last write wins
type CourseRating struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CourseID  uint      `json:"course_id" gorm:"uniqueIndex:idx_rating_course_user;not null"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_rating_course_user;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
