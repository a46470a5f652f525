package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/gateway"
	"lms/models"

	"gorm.io/gorm"
)

// CertificateService requests certificate rendering, serves the provisional
// artifact and reconciles the final artifact delivered by webhook. The
// per-row state tag only moves forward: NotRequested -> Provisional -> Final.
type CertificateService struct {
	db      *gorm.DB
	docs    gateway.DocumentProvider
	mailer  Mailer
	timeout time.Duration
}

func NewCertificateService(db *gorm.DB, docs gateway.DocumentProvider, mailer Mailer, timeout time.Duration) *CertificateService {
	return &CertificateService{db: db, docs: docs, mailer: mailer, timeout: timeout}
}

// RequestCertificate returns the certificate URL for a completed course,
// requesting document generation on the first call. Clients poll this until
// the URL stabilises; the returned URL only ever improves (provisional ->
// final), never regresses.
func (s *CertificateService) RequestCertificate(ctx context.Context, userID string, courseID uint) (string, error) {
	var progress models.CourseProgress
	if err := s.db.WithContext(ctx).First(&progress, "user_id = ? AND course_id = ?", userID, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: no progress for user %s in course %d", ErrNotFound, userID, courseID)
		}
		return "", err
	}

	// Fast path doubles as the polling endpoint.
	if progress.CertificateURL != "" {
		return progress.CertificateURL, nil
	}

	if !progress.IsCompleted {
		return "", fmt.Errorf("%w: course %d", ErrNotCompleted, courseID)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return "", err
	}
	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: course %d", ErrNotFound, courseID)
		}
		return "", err
	}

	// Provider call happens before any row is written; no lock is held
	// across the network.
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := s.docs.CreateDocument(callCtx,
		gateway.DocumentPayload{
			Name:   user.Name,
			Course: course.Title,
			Date:   time.Now().Format("2006-01-02"),
		},
		gateway.DocumentMetadata{UserID: userID, CourseID: courseID},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentProvider, err)
	}

	url := doc.DownloadURL
	if url == "" {
		url = doc.PreviewURL
	}

	// Compare-and-swap on the state tag: only the first requester writes the
	// provisional URL. A finalize webhook that raced us wins, and a delayed
	// retry of this path can never downgrade it.
	res := s.db.WithContext(ctx).Model(&models.CourseProgress{}).
		Where("id = ? AND certificate_state = ?", progress.ID, models.CertificateNotRequested).
		Updates(map[string]interface{}{
			"certificate_url":   url,
			"certificate_state": models.CertificateProvisional,
		})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race; return whatever is durably stored
		var current models.CourseProgress
		if err := s.db.WithContext(ctx).First(&current, "id = ?", progress.ID).Error; err != nil {
			return "", err
		}
		return current.CertificateURL, nil
	}

	return url, nil
}

// HandleCertificateFinalized applies the provider's finalization webhook.
// The final artifact always supersedes the provisional one; redelivery with
// the same URL is a no-op in effect.
func (s *CertificateService) HandleCertificateFinalized(ctx context.Context, userID string, courseID uint, finalURL string) error {
	if finalURL == "" {
		return fmt.Errorf("%w: empty final url", ErrInvalidInput)
	}

	res := s.db.WithContext(ctx).Model(&models.CourseProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Where("certificate_state <> ? OR certificate_url <> ?", models.CertificateFinal, finalURL).
		Updates(map[string]interface{}{
			"certificate_url":   finalURL,
			"certificate_state": models.CertificateFinal,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the row is missing or a redelivery already wrote this
		// URL. Only the missing row is an integrity failure.
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.CourseProgress{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: no progress for user %s in course %d", ErrDataIntegrity, userID, courseID)
		}
		// already final with this URL: redelivery, nothing to do
		return nil
	}

	if s.mailer != nil {
		go s.sendCertificateMail(userID, courseID, finalURL)
	}
	return nil
}

func (s *CertificateService) sendCertificateMail(userID string, courseID uint, url string) {
	var user models.User
	var course models.Course
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return
	}
	if err := s.db.First(&course, "id = ?", courseID).Error; err != nil {
		return
	}
	if err := s.mailer.SendCertificateEmail(user.Email, user.Name, course.Title, url); err != nil {
		log.Printf("Failed to send certificate email to %s: %v", user.Email, err)
	}
}
