package controllers

import (
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller bundles the user profile and testimonial handlers
type Controller struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{DB: db}
}

// GetUserData returns the authenticated user's mirrored profile
func (ctrl *Controller) GetUserData(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := ctrl.DB.First(&user, "id = ?", userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", user)
}

// GetEnrolledCourses lists the courses the user is enrolled in
func (ctrl *Controller) GetEnrolledCourses(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var courses []models.Course
	if err := ctrl.DB.
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.created_at desc").
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrolled_courses": courses,
		"total":            len(courses),
	})
}

// AddFeedback appends a testimonial
func (ctrl *Controller) AddFeedback(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedFeedback").(*struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Message      string `json:"message"`
		Rating       int    `json:"rating"`
		ProfileImage string `json:"profile_image"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	feedback := models.Feedback{
		Name:         reqData.Name,
		Email:        reqData.Email,
		Message:      reqData.Message,
		Rating:       reqData.Rating,
		ProfileImage: reqData.ProfileImage,
	}
	if err := ctrl.DB.Create(&feedback).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save feedback!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Feedback added!", feedback)
}

// GetFeedbackList returns testimonials, newest first
func (ctrl *Controller) GetFeedbackList(c *fiber.Ctx) error {
	var feedbacks []models.Feedback
	if err := ctrl.DB.Order("created_at desc").Limit(50).Find(&feedbacks).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch feedback!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feedback fetched successfully!", fiber.Map{
		"feedbacks": feedbacks,
	})
}
