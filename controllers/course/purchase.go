package controllers

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// PurchaseCourse creates a pending purchase and returns the gateway's
// checkout redirect URL
func (ctrl *Controller) PurchaseCourse(c *fiber.Ctx) error {
	userID, ok := authedUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	origin := c.Get("Origin")
	if origin == "" {
		origin = c.BaseURL()
	}

	purchase, checkoutURL, err := ctrl.Purchases.CreatePurchase(c.Context(), userID, courseID, origin)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Purchase created successfully!", fiber.Map{
		"purchase_id": purchase.ID,
		"amount":      purchase.AmountCents,
		"currency":    purchase.Currency,
		"session_url": checkoutURL,
	})
}
