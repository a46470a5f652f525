package services

import (
	"context"
	"testing"
	"time"

	"lms/gateway"
	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks a student through the full journey: purchase, payment webhook,
// lectures, quiz, certificate request and finalization.
func TestFullEnrollmentJourney(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	payments := &fakePayments{}
	docs := &fakeDocs{document: gateway.Document{PreviewURL: "https://pdf.example.com/preview.pdf"}}

	purchases := NewPurchaseService(db, payments, nil, "usd", time.Second)
	progress := NewProgressService(db)
	certificates := NewCertificateService(db, docs, nil, time.Second)

	user := seedUser(t, db, "user_1")
	course := seedCourse(t, db, 20000, 25)
	first := seedLecture(t, db, course.ID, "Getting Started")
	second := seedLecture(t, db, course.ID, "Going Deeper")
	seedQuizQuestion(t, db, course.ID, "Q1", []string{"yes", "no"}, 0)
	seedQuizQuestion(t, db, course.ID, "Q2", []string{"left", "right"}, 1)

	// purchase at 25% off
	purchase, sessionURL, err := purchases.CreatePurchase(ctx, user.ID, course.ID, "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), purchase.AmountCents)
	assert.NotEmpty(t, sessionURL)

	// course content is locked until the payment webhook lands
	err = progress.MarkLectureComplete(ctx, user.ID, course.ID, first.ID)
	require.ErrorIs(t, err, ErrNotEnrolled)

	require.NoError(t, purchases.HandlePaymentCompleted(ctx, purchase.ID))

	// work through the course
	require.NoError(t, progress.MarkLectureComplete(ctx, user.ID, course.ID, first.ID))
	require.NoError(t, progress.MarkLectureComplete(ctx, user.ID, course.ID, second.ID))

	// no certificate before the quiz
	_, err = certificates.RequestCertificate(ctx, user.ID, course.ID)
	require.ErrorIs(t, err, ErrNotCompleted)

	result, err := progress.SubmitQuiz(ctx, user.ID, course.ID, []string{"yes", "right"})
	require.NoError(t, err)
	require.True(t, result.Passed)

	snapshot, err := progress.GetProgress(ctx, user.ID, course.ID)
	require.NoError(t, err)
	require.True(t, snapshot.Progress.IsCompleted)

	// provisional certificate on first request
	url, err := certificates.RequestCertificate(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pdf.example.com/preview.pdf", url)

	// provider finalizes asynchronously
	require.NoError(t, certificates.HandleCertificateFinalized(ctx, user.ID, course.ID, "https://pdf.example.com/final.pdf"))

	// polling now serves the final artifact, without another render
	url, err = certificates.RequestCertificate(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pdf.example.com/final.pdf", url)
	assert.Equal(t, 1, docs.callCount())

	require.NoError(t, progress.AddRating(ctx, user.ID, course.ID, 5))

	var rating models.CourseRating
	require.NoError(t, db.First(&rating, "course_id = ? AND user_id = ?", course.ID, user.ID).Error)
	assert.Equal(t, 5, rating.Rating)
}
