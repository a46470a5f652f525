package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/gateway"
	"lms/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseService drives a purchase from creation through completion or
// failure and applies enrollment exactly once.
type PurchaseService struct {
	db       *gorm.DB
	payments gateway.PaymentGateway
	mailer   Mailer
	currency string
	timeout  time.Duration
}

func NewPurchaseService(db *gorm.DB, payments gateway.PaymentGateway, mailer Mailer, currency string, timeout time.Duration) *PurchaseService {
	return &PurchaseService{
		db:       db,
		payments: payments,
		mailer:   mailer,
		currency: currency,
		timeout:  timeout,
	}
}

// PurchaseAmountCents computes the discounted price in currency minor units,
// rounded half-up.
func PurchaseAmountCents(priceCents int64, discountPercent int) int64 {
	return (priceCents*int64(100-discountPercent) + 50) / 100
}

// CreatePurchase persists a pending purchase and requests a hosted-checkout
// session from the payment gateway. On a gateway failure the pending row is
// retained and later picked up by reconciliation or settled manually.
func (s *PurchaseService) CreatePurchase(ctx context.Context, userID string, courseID uint, origin string) (*models.Purchase, string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, "", err
	}

	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, "id = ? AND is_published = ?", courseID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: course %d", ErrNotFound, courseID)
		}
		return nil, "", err
	}

	amount := PurchaseAmountCents(course.PriceCents, course.DiscountPercent)
	if amount <= 0 {
		return nil, "", fmt.Errorf("%w: purchase amount must be positive", ErrInvalidInput)
	}

	currency := course.Currency
	if currency == "" {
		currency = s.currency
	}

	purchase := models.Purchase{
		ID:          uuid.NewString(),
		CourseID:    course.ID,
		UserID:      user.ID,
		AmountCents: amount,
		Currency:    currency,
		Status:      models.PurchasePending,
	}
	if err := s.db.WithContext(ctx).Create(&purchase).Error; err != nil {
		return nil, "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.payments.CreateCheckoutSession(callCtx, gateway.CheckoutRequest{
		PurchaseID:  purchase.ID,
		AmountCents: amount,
		Currency:    currency,
		ProductName: course.Title,
		SuccessURL:  origin + "/loading/my-enrollments",
		CancelURL:   origin + "/",
	})
	if err != nil {
		log.Printf("Checkout session creation failed for purchase %s: %v", purchase.ID, err)
		return &purchase, "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	purchase.CheckoutSessionID = session.ID
	if err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", purchase.ID).
		Update("checkout_session_id", session.ID).Error; err != nil {
		return &purchase, "", err
	}

	return &purchase, session.URL, nil
}

// HandlePaymentCompleted applies the completed-payment event: enroll the
// user (set-union, replay safe) and mark the purchase completed, all in one
// transaction. A redelivered event is a harmless no-op. Completion wins any
// race with a failure event.
func (s *PurchaseService) HandlePaymentCompleted(ctx context.Context, purchaseID string) error {
	var notify *models.Purchase

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchase models.Purchase
		if err := tx.First(&purchase, "id = ?", purchaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: purchase %s", ErrDataIntegrity, purchaseID)
			}
			return err
		}

		if purchase.Status == models.PurchaseCompleted {
			// duplicate delivery
			return nil
		}

		var user models.User
		if err := tx.First(&user, "id = ?", purchase.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %s for purchase %s", ErrDataIntegrity, purchase.UserID, purchaseID)
			}
			return err
		}
		var course models.Course
		if err := tx.First(&course, "id = ?", purchase.CourseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: course %d for purchase %s", ErrDataIntegrity, purchase.CourseID, purchaseID)
			}
			return err
		}

		enrollment := models.Enrollment{UserID: user.ID, CourseID: course.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment).Error; err != nil {
			return err
		}

		// Conditional update keeps a racing second delivery from stamping
		// CompletedAt twice; the enrollment insert above is idempotent anyway.
		now := time.Now()
		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status <> ?", purchase.ID, models.PurchaseCompleted).
			Updates(map[string]interface{}{
				"status":       models.PurchaseCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			purchase.Status = models.PurchaseCompleted
			purchase.CompletedAt = &now
			notify = &purchase
		}
		return nil
	})
	if err != nil {
		return err
	}

	if notify != nil && s.mailer != nil {
		go s.sendEnrollmentMail(notify.UserID, notify.CourseID)
	}
	return nil
}

// HandlePaymentFailed applies the failed-payment event. Only a pending
// purchase can fail; completed wins, and a redelivered failure is a no-op.
func (s *PurchaseService) HandlePaymentFailed(ctx context.Context, purchaseID string) error {
	res := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", purchaseID, models.PurchasePending).
		Update("status", models.PurchaseFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Purchase{}).
			Where("id = ?", purchaseID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: purchase %s", ErrDataIntegrity, purchaseID)
		}
		// already completed or failed: terminal state stands
	}
	return nil
}

// ReconcilePending sweeps purchases stuck in pending (missed webhooks,
// gateway errors after session creation) and settles them from the
// gateway's view of the session.
func (s *PurchaseService) ReconcilePending(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	var stale []models.Purchase
	if err := s.db.WithContext(ctx).
		Where("status = ? AND checkout_session_id <> '' AND created_at < ?", models.PurchasePending, cutoff).
		Find(&stale).Error; err != nil {
		return err
	}

	for _, purchase := range stale {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		status, err := s.payments.SessionStatus(callCtx, purchase.CheckoutSessionID)
		cancel()
		if err != nil {
			log.Printf("[RECONCILE] Session lookup failed for purchase %s: %v", purchase.ID, err)
			continue
		}

		switch status {
		case gateway.SessionPaid:
			if err := s.HandlePaymentCompleted(ctx, purchase.ID); err != nil {
				log.Printf("[RECONCILE] Failed to complete purchase %s: %v", purchase.ID, err)
			} else {
				log.Printf("[RECONCILE] Purchase %s settled as completed", purchase.ID)
			}
		case gateway.SessionFailed, gateway.SessionExpired:
			if err := s.HandlePaymentFailed(ctx, purchase.ID); err != nil {
				log.Printf("[RECONCILE] Failed to fail purchase %s: %v", purchase.ID, err)
			} else {
				log.Printf("[RECONCILE] Purchase %s settled as failed", purchase.ID)
			}
		}
	}
	return nil
}

func (s *PurchaseService) sendEnrollmentMail(userID string, courseID uint) {
	var user models.User
	var course models.Course
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return
	}
	if err := s.db.First(&course, "id = ?", courseID).Error; err != nil {
		return
	}
	if err := s.mailer.SendEnrollmentEmail(user.Email, user.Name, course.Title); err != nil {
		log.Printf("Failed to send enrollment email to %s: %v", user.Email, err)
	}
}
