package userRoutes

import (
	controllers "lms/controllers/user"
	"lms/middleware"
	validators "lms/validators/user"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes sets up the authenticated user profile routes
func SetupUserRoutes(app *fiber.App, ctrl *controllers.Controller) {
	userGroup := app.Group("/user")

	userGroup.Get("/data", middleware.JWTMiddleware, ctrl.GetUserData)
	userGroup.Get("/enrolled-courses", middleware.JWTMiddleware, ctrl.GetEnrolledCourses)

	feedbackGroup := app.Group("/feedback")
	feedbackGroup.Post("/add", middleware.JWTMiddleware, validators.AddFeedback(), ctrl.AddFeedback)
	feedbackGroup.Get("/list", ctrl.GetFeedbackList)
}
