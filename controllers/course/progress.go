package controllers

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// MarkLectureComplete records a completed lecture; repeat calls are no-ops
func (ctrl *Controller) MarkLectureComplete(c *fiber.Ctx) error {
	userID, ok := authedUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)
	lectureID := c.Locals("lectureID").(uint)

	if err := ctrl.Progress.MarkLectureComplete(c.Context(), userID, courseID, lectureID); err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated!", nil)
}

// GetUserProgress returns the progress snapshot for a course
func (ctrl *Controller) GetUserProgress(c *fiber.Ctx) error {
	userID, ok := authedUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	snapshot, err := ctrl.Progress.GetProgress(c.Context(), userID, courseID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", snapshot)
}
