package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lms/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService tracks lecture completion, scores quiz submissions and
// derives course-completion status.
type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// QuizResult is the outcome of a graded submission
type QuizResult struct {
	Passed         bool `json:"passed"`
	CorrectCount   int  `json:"correct_count"`
	TotalQuestions int  `json:"total_questions"`
}

// ProgressSnapshot is the client-facing view of a progress row
type ProgressSnapshot struct {
	Progress            *models.CourseProgress `json:"progress"`
	CompletedLectureIDs []uint                 `json:"completed_lecture_ids"`
}

// MarkLectureComplete adds a lecture to the user's completed set. Repeat
// calls are no-ops. Completion status is re-derived afterwards so the call
// that covers the last lecture can flip IsCompleted (immediately for
// quizless courses, together with a passed quiz otherwise).
func (s *ProgressService) MarkLectureComplete(ctx context.Context, userID string, courseID, lectureID uint) error {
	var lecture models.Lecture
	if err := s.db.WithContext(ctx).First(&lecture, "id = ? AND course_id = ?", lectureID, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: lecture %d in course %d", ErrNotFound, lectureID, courseID)
		}
		return err
	}

	if err := s.requireEnrollment(ctx, userID, courseID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := upsertProgress(tx, userID, courseID)
		if err != nil {
			return err
		}

		completion := models.LectureCompletion{UserID: userID, CourseID: courseID, LectureID: lectureID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
			return err
		}

		return s.refreshCompletion(tx, progress)
	})
}

// SubmitQuiz grades the one permitted submission for the user-course pair.
// Answers are the literal option texts, ordered to match the quiz questions.
// Exactly 50% correct passes.
func (s *ProgressService) SubmitQuiz(ctx context.Context, userID string, courseID uint, answers []string) (*QuizResult, error) {
	var questions []models.QuizQuestion
	if err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index asc, id asc").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: course %d has no quiz", ErrInvalidInput, courseID)
	}
	if len(answers) != len(questions) {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", ErrInvalidInput, len(questions), len(answers))
	}

	correct := 0
	for i, q := range questions {
		if q.OptionIndex(answers[i]) == q.CorrectAnswerIndex {
			correct++
		}
	}
	passed := correct*2 >= len(questions)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var progress models.CourseProgress
		if err := tx.First(&progress, "user_id = ? AND course_id = ?", userID, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no progress for user %s in course %d", ErrInvalidInput, userID, courseID)
			}
			return err
		}
		if progress.QuizGraded {
			return ErrAlreadyGraded
		}

		// Conditional update: the first graded submission is authoritative
		// even when two race past the check above.
		res := tx.Model(&models.CourseProgress{}).
			Where("id = ? AND quiz_graded = ?", progress.ID, false).
			Updates(map[string]interface{}{
				"quiz_graded": true,
				"quiz_passed": passed,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyGraded
		}

		progress.QuizGraded = true
		progress.QuizPassed = passed
		return s.refreshCompletion(tx, &progress)
	})
	if err != nil {
		return nil, err
	}

	return &QuizResult{Passed: passed, CorrectCount: correct, TotalQuestions: len(questions)}, nil
}

// AddRating upserts the user's 1..5 rating for an enrolled course
func (s *ProgressService) AddRating(ctx context.Context, userID string, courseID uint, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: course %d", ErrNotFound, courseID)
		}
		return err
	}

	if err := s.requireEnrollment(ctx, userID, courseID); err != nil {
		return fmt.Errorf("%w: user has not purchased this course", ErrInvalidInput)
	}

	row := models.CourseRating{CourseID: courseID, UserID: userID, Rating: rating}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"rating": rating, "updated_at": time.Now()}),
	}).Create(&row).Error
}

// GetProgress returns the progress row and completed lecture set. A user who
// never recorded progress gets an empty snapshot.
func (s *ProgressService) GetProgress(ctx context.Context, userID string, courseID uint) (*ProgressSnapshot, error) {
	var progress models.CourseProgress
	err := s.db.WithContext(ctx).First(&progress, "user_id = ? AND course_id = ?", userID, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ProgressSnapshot{CompletedLectureIDs: []uint{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var lectureIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.LectureCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Pluck("lecture_id", &lectureIDs).Error; err != nil {
		return nil, err
	}

	return &ProgressSnapshot{Progress: &progress, CompletedLectureIDs: lectureIDs}, nil
}

func (s *ProgressService) requireEnrollment(ctx context.Context, userID string, courseID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotEnrolled
	}
	return nil
}

// refreshCompletion re-derives IsCompleted for a progress row. Completion is
// sticky: once true it is never recomputed. A course with zero lectures and
// no quiz is never completable through this engine.
func (s *ProgressService) refreshCompletion(tx *gorm.DB, progress *models.CourseProgress) error {
	if progress.IsCompleted {
		return nil
	}

	var totalLectures, doneLectures, quizQuestions int64
	if err := tx.Model(&models.Lecture{}).
		Where("course_id = ?", progress.CourseID).Count(&totalLectures).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.QuizQuestion{}).
		Where("course_id = ?", progress.CourseID).Count(&quizQuestions).Error; err != nil {
		return err
	}
	if totalLectures == 0 && quizQuestions == 0 {
		return nil
	}
	if err := tx.Model(&models.LectureCompletion{}).
		Where("user_id = ? AND course_id = ?", progress.UserID, progress.CourseID).
		Count(&doneLectures).Error; err != nil {
		return err
	}

	covered := doneLectures >= totalLectures
	quizOK := quizQuestions == 0 || progress.QuizPassed
	if !covered || !quizOK {
		return nil
	}

	now := time.Now()
	res := tx.Model(&models.CourseProgress{}).
		Where("id = ? AND is_completed = ?", progress.ID, false).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		progress.IsCompleted = true
		progress.CompletedAt = &now
	}
	return nil
}

// upsertProgress loads or creates the progress row for (userID, courseID)
func upsertProgress(tx *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error) {
	progress := models.CourseProgress{UserID: userID, CourseID: courseID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&progress).Error; err != nil {
		return nil, err
	}
	if err := tx.First(&progress, "user_id = ? AND course_id = ?", userID, courseID).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}
