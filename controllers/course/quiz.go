package controllers

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// SubmitQuiz grades the user's single quiz submission for a course
func (ctrl *Controller) SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := authedUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	reqData, ok := c.Locals("validatedQuiz").(*struct {
		Answers []string `json:"answers"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctrl.Progress.SubmitQuiz(c.Context(), userID, courseID, reqData.Answers)
	if err != nil {
		return serviceError(c, err)
	}

	message := "Quiz failed. Better luck next time!"
	if result.Passed {
		message = "Quiz passed!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

// AddRating upserts the user's rating for an enrolled course
func (ctrl *Controller) AddRating(c *fiber.Ctx) error {
	userID, ok := authedUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	reqData, ok := c.Locals("validatedRating").(*struct {
		Rating int `json:"rating"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := ctrl.Progress.AddRating(c.Context(), userID, courseID, reqData.Rating); err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Rating added!", nil)
}
