package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all student-facing course routes
func SetupCourseRoutes(app *fiber.App, ctrl *controllers.Controller) {
	courseGroup := app.Group("/course")

	// Catalog (public)
	courseGroup.Get("/list", validators.CourseList(), ctrl.GetAllCourses)
	courseGroup.Get("/:id", validators.CourseID(), ctrl.GetCourseDetails)

	// Purchase
	courseGroup.Post("/:id/purchase", middleware.JWTMiddleware, validators.CourseID(), ctrl.PurchaseCourse)

	// Progress tracking
	courseGroup.Post("/:course_id/lecture/:lecture_id/complete", middleware.JWTMiddleware, validators.LectureComplete(), ctrl.MarkLectureComplete)
	courseGroup.Get("/:id/progress", middleware.JWTMiddleware, validators.CourseID(), ctrl.GetUserProgress)

	// Quiz submission
	courseGroup.Post("/:id/quiz/submit", middleware.JWTMiddleware, validators.CourseID(), validators.SubmitQuiz(), ctrl.SubmitQuiz)

	// Ratings
	courseGroup.Post("/:id/rating", middleware.JWTMiddleware, validators.CourseID(), validators.AddRating(), ctrl.AddRating)

	// Certificate request
	courseGroup.Post("/:id/certificate", middleware.JWTMiddleware, validators.CourseID(), ctrl.RequestCertificate)
}
