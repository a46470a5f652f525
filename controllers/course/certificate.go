package controllers

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// RequestCertificate returns the certificate URL for a completed course,
// requesting generation on the first call. Clients poll this endpoint until
// the URL stops changing.
func (ctrl *Controller) RequestCertificate(c *fiber.Ctx) error {
	userID, ok := authedUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	url, err := ctrl.Certificates.RequestCertificate(c.Context(), userID, courseID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", fiber.Map{
		"download_url": url,
	})
}
