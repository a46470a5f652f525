package controllers

import (
	"errors"

	"lms/middleware"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller bundles the student-facing course handlers with their injected
// services.
type Controller struct {
	DB           *gorm.DB
	Purchases    *services.PurchaseService
	Progress     *services.ProgressService
	Certificates *services.CertificateService
}

func New(db *gorm.DB, purchases *services.PurchaseService, progress *services.ProgressService, certificates *services.CertificateService) *Controller {
	return &Controller{
		DB:           db,
		Purchases:    purchases,
		Progress:     progress,
		Certificates: certificates,
	}
}

// serviceError maps pipeline sentinel errors onto the response envelope
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Not found!", nil)
	case errors.Is(err, services.ErrNotEnrolled):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	case errors.Is(err, services.ErrAlreadyGraded):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz already graded!", nil)
	case errors.Is(err, services.ErrNotCompleted):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Please complete the course before requesting a certificate!", nil)
	case errors.Is(err, services.ErrInvalidInput):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	case errors.Is(err, services.ErrGateway):
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Payment could not be started, try again!", nil)
	case errors.Is(err, services.ErrDocumentProvider):
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Certificate generation is temporarily unavailable, try again!", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong!", nil)
	}
}

// authedUser pulls the verified identity-provider user id from the context
func authedUser(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("userId").(string)
	return userID, ok && userID != ""
}
