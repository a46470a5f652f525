package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"lms/gateway"
	"lms/models"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Controller handles the verified asynchronous event channels. Signature
// verification always runs before any database access; events that fail it
// never reach the state machines.
type Controller struct {
	DB           *gorm.DB
	Purchases    *services.PurchaseService
	Certificates *services.CertificateService

	StripeWebhookSecret    string
	ClerkWebhookSecret     string
	PdfMonkeyWebhookSecret string
	Tolerance              time.Duration
}

func New(db *gorm.DB, purchases *services.PurchaseService, certificates *services.CertificateService,
	stripeSecret, clerkSecret, pdfMonkeySecret string, tolerance time.Duration) *Controller {
	return &Controller{
		DB:           db,
		Purchases:    purchases,
		Certificates: certificates,

		StripeWebhookSecret:    stripeSecret,
		ClerkWebhookSecret:     clerkSecret,
		PdfMonkeyWebhookSecret: pdfMonkeySecret,
		Tolerance:              tolerance,
	}
}

// StripeWebhook applies payment gateway events. Durably applied or
// harmless-duplicate events return 200; permanent data mismatches are
// logged and acknowledged to stop redelivery; transient failures return an
// error status so the gateway redelivers.
func (ctrl *Controller) StripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	if err := gateway.VerifyStripeSignature(payload, c.Get("Stripe-Signature"), ctrl.StripeWebhookSecret, ctrl.Tolerance, time.Now()); err != nil {
		log.Printf("Stripe signature verification failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	purchaseID := event.Data.Object.Metadata["purchaseId"]
	audit := ctrl.recordEvent("stripe", event.Type, purchaseID, payload)

	switch event.Type {
	case "checkout.session.completed":
		if purchaseID == "" {
			ctrl.settleEvent(audit, models.EventFailed, "purchaseId missing in metadata")
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
		}
		if err := ctrl.Purchases.HandlePaymentCompleted(c.Context(), purchaseID); err != nil {
			if errors.Is(err, services.ErrDataIntegrity) {
				log.Printf("Stripe webhook: %v", err)
				ctrl.settleEvent(audit, models.EventFailed, err.Error())
				return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
			}
			ctrl.settleEvent(audit, models.EventFailed, err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook handler failed"})
		}

	case "checkout.session.async_payment_failed":
		if purchaseID == "" {
			ctrl.settleEvent(audit, models.EventFailed, "purchaseId missing in metadata")
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
		}
		if err := ctrl.Purchases.HandlePaymentFailed(c.Context(), purchaseID); err != nil {
			if errors.Is(err, services.ErrDataIntegrity) {
				log.Printf("Stripe webhook: %v", err)
				ctrl.settleEvent(audit, models.EventFailed, err.Error())
				return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
			}
			ctrl.settleEvent(audit, models.EventFailed, err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook handler failed"})
		}

	default:
		log.Printf("Unhandled stripe event: %s", event.Type)
	}

	ctrl.settleEvent(audit, models.EventProcessed, "")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// ClerkWebhook mirrors identity provider user lifecycle events
func (ctrl *Controller) ClerkWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	if err := gateway.VerifySvixSignature(
		c.Get("svix-id"), c.Get("svix-timestamp"), c.Get("svix-signature"),
		payload, ctrl.ClerkWebhookSecret,
	); err != nil {
		log.Printf("Clerk signature verification failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			ID             string `json:"id"`
			FirstName      string `json:"first_name"`
			LastName       string `json:"last_name"`
			ImageURL       string `json:"image_url"`
			EmailAddresses []struct {
				EmailAddress string `json:"email_address"`
			} `json:"email_addresses"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	audit := ctrl.recordEvent("clerk", event.Type, event.Data.ID, payload)

	email := ""
	if len(event.Data.EmailAddresses) > 0 {
		email = event.Data.EmailAddresses[0].EmailAddress
	}

	switch event.Type {
	case "user.created", "user.updated":
		user := models.User{
			ID:       event.Data.ID,
			Email:    email,
			Name:     event.Data.FirstName + " " + event.Data.LastName,
			ImageURL: event.Data.ImageURL,
		}
		// upsert profile columns only; a locally assigned role survives updates
		if err := ctrl.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "image_url", "updated_at"}),
		}).Create(&user).Error; err != nil {
			ctrl.settleEvent(audit, models.EventFailed, err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook handler failed"})
		}

	case "user.deleted":
		if err := ctrl.DB.Delete(&models.User{}, "id = ?", event.Data.ID).Error; err != nil {
			ctrl.settleEvent(audit, models.EventFailed, err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook handler failed"})
		}

	default:
		log.Printf("Unhandled clerk event: %s", event.Type)
	}

	ctrl.settleEvent(audit, models.EventProcessed, "")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{})
}

// CertificateWebhook reconciles the final certificate artifact
func (ctrl *Controller) CertificateWebhook(c *fiber.Ctx) error {
	if err := gateway.VerifySharedSecret(c.Get("x-pdfmonkey-signature"), ctrl.PdfMonkeyWebhookSecret); err != nil {
		log.Printf("Certificate webhook: invalid or missing secret")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	payload := c.Body()

	var event struct {
		Document struct {
			Metadata struct {
				UserID   string `json:"userId"`
				CourseID uint   `json:"courseId"`
			} `json:"metadata"`
			Attributes struct {
				DownloadURL string `json:"download_url"`
			} `json:"attributes"`
		} `json:"document"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Missing document data"})
	}

	userID := event.Document.Metadata.UserID
	courseID := event.Document.Metadata.CourseID
	downloadURL := event.Document.Attributes.DownloadURL

	if userID == "" || courseID == 0 || downloadURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Incomplete data"})
	}

	audit := ctrl.recordEvent("pdfmonkey", "document.finalized", userID+":"+strconv.FormatUint(uint64(courseID), 10), payload)

	if err := ctrl.Certificates.HandleCertificateFinalized(c.Context(), userID, courseID, downloadURL); err != nil {
		if errors.Is(err, services.ErrDataIntegrity) {
			log.Printf("Certificate webhook: %v", err)
			ctrl.settleEvent(audit, models.EventFailed, err.Error())
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
		}
		ctrl.settleEvent(audit, models.EventFailed, err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Internal Server Error"})
	}

	ctrl.settleEvent(audit, models.EventProcessed, "")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// recordEvent writes the audit row for a verified inbound event
func (ctrl *Controller) recordEvent(provider, eventType, externalID string, payload []byte) *models.GatewayEvent {
	event := models.GatewayEvent{
		Provider:   provider,
		EventType:  eventType,
		ExternalID: externalID,
		Payload:    datatypes.JSON(payload),
		Status:     models.EventReceived,
	}
	if err := ctrl.DB.Create(&event).Error; err != nil {
		log.Printf("Failed to record %s event: %v", provider, err)
		return nil
	}
	return &event
}

func (ctrl *Controller) settleEvent(event *models.GatewayEvent, status, note string) {
	if event == nil {
		return
	}
	if err := ctrl.DB.Model(event).Updates(map[string]interface{}{
		"status": status,
		"note":   note,
	}).Error; err != nil {
		log.Printf("Failed to update event %d: %v", event.ID, err)
	}
}
