package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"lms/database"
	"lms/gateway"
	"lms/models"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. The pool is capped at
// one connection so every query sees the same in-memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	user := models.User{ID: id, Email: id + "@example.com", Name: "User " + id}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedCourse(t *testing.T, db *gorm.DB, priceCents int64, discount int) *models.Course {
	t.Helper()
	course := models.Course{
		Title:           "Test Course",
		Description:     "course used in tests",
		EducatorID:      "educator_1",
		PriceCents:      priceCents,
		DiscountPercent: discount,
		Currency:        "usd",
		IsPublished:     true,
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func seedLecture(t *testing.T, db *gorm.DB, courseID uint, title string) *models.Lecture {
	t.Helper()
	chapter := models.Chapter{CourseID: courseID, Title: "Chapter for " + title}
	require.NoError(t, db.Create(&chapter).Error)
	lecture := models.Lecture{ChapterID: chapter.ID, CourseID: courseID, Title: title}
	require.NoError(t, db.Create(&lecture).Error)
	return &lecture
}

func seedQuizQuestion(t *testing.T, db *gorm.DB, courseID uint, question string, options []string, correct int) *models.QuizQuestion {
	t.Helper()
	raw, err := json.Marshal(options)
	require.NoError(t, err)
	q := models.QuizQuestion{
		CourseID:           courseID,
		Question:           question,
		Options:            datatypes.JSON(raw),
		CorrectAnswerIndex: correct,
	}
	require.NoError(t, db.Create(&q).Error)
	return &q
}

func enroll(t *testing.T, db *gorm.DB, userID string, courseID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Enrollment{UserID: userID, CourseID: courseID}).Error)
}

// fakePayments is a scriptable payment gateway
type fakePayments struct {
	mu sync.Mutex

	sessionErr    error
	statusByID    map[string]string
	createdReqs   []gateway.CheckoutRequest
	nextSessionID string
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.createdReqs = append(f.createdReqs, req)
	id := f.nextSessionID
	if id == "" {
		id = "cs_test_1"
	}
	return &gateway.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (f *fakePayments) SessionStatus(_ context.Context, sessionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status, ok := f.statusByID[sessionID]; ok {
		return status, nil
	}
	return gateway.SessionUnpaid, nil
}

// fakeDocs is a scriptable document provider
type fakeDocs struct {
	mu sync.Mutex

	err      error
	calls    int
	document gateway.Document
}

func (f *fakeDocs) CreateDocument(_ context.Context, payload gateway.DocumentPayload, meta gateway.DocumentMetadata) (*gateway.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls += 1
	if f.err != nil {
		return nil, f.err
	}
	doc := f.document
	if doc.PreviewURL == "" && doc.DownloadURL == "" {
		doc.PreviewURL = "https://docs.example.com/preview.pdf"
	}
	return &doc, nil
}

func (f *fakeDocs) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
