package educatorRoutes

import (
	controllers "lms/controllers/educator"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupEducatorRoutes sets up the course management routes. Every route
// requires the educator role.
func SetupEducatorRoutes(app *fiber.App, ctrl *controllers.Controller) {
	educatorGroup := app.Group("/educator", middleware.JWTMiddleware, middleware.RequireRole("educator"))

	educatorGroup.Post("/course/add", ctrl.CreateCourse)
	educatorGroup.Put("/course/:id/quiz", validators.CourseID(), ctrl.UpdateQuiz)
	educatorGroup.Get("/courses", ctrl.GetCourses)
	educatorGroup.Get("/dashboard", ctrl.Dashboard)
	educatorGroup.Get("/enrolled-students", ctrl.GetEnrolledStudents)
}
