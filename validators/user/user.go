package userValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// AddFeedback validates the testimonial body
func AddFeedback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name         string `json:"name"`
			Email        string `json:"email"`
			Message      string `json:"message"`
			Rating       int    `json:"rating"`
			ProfileImage string `json:"profile_image"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Name) == "" {
			errors["name"] = "Name is required!"
		}
		if strings.TrimSpace(reqData.Message) == "" {
			errors["message"] = "Message is required!"
		}
		if reqData.Rating == 0 {
			reqData.Rating = 5
		}
		if reqData.Rating < 1 || reqData.Rating > 5 {
			errors["rating"] = "Rating must be between 1 and 5!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedFeedback", reqData)
		return c.Next()
	}
}
