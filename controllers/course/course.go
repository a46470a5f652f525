package controllers

import (
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// GetAllCourses lists the published catalog with optional pagination
func (ctrl *Controller) GetAllCourses(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*struct {
		Page  *int `query:"page"`
		Limit *int `query:"limit"`
	})

	db := ctrl.DB.Model(&models.Course{}).Where("is_published = ?", true)

	if !ok || reqData.Page == nil || reqData.Limit == nil {
		var courses []models.Course
		if err := db.Order("created_at desc").Find(&courses).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
			"courses": courses,
		})
	}

	page := *reqData.Page
	limit := *reqData.Limit
	offset := (page - 1) * limit

	var total int64
	db.Count(&total)

	var courses []models.Course
	if err := db.Offset(offset).Limit(limit).Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetCourseDetails returns a published course with its chapters, lectures
// and quiz questions. Correct answers never leave the server.
func (ctrl *Controller) GetCourseDetails(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	var course models.Course
	if err := ctrl.DB.First(&course, "id = ? AND is_published = ?", courseID, true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var chapters []models.Chapter
	ctrl.DB.Where("course_id = ?", courseID).Order("order_index asc").Find(&chapters)

	type ChapterWithLectures struct {
		models.Chapter
		Lectures []models.Lecture `json:"lectures"`
	}

	content := make([]ChapterWithLectures, len(chapters))
	for i, chapter := range chapters {
		content[i] = ChapterWithLectures{Chapter: chapter}
		ctrl.DB.Where("chapter_id = ?", chapter.ID).Order("order_index asc").Find(&content[i].Lectures)
	}

	var quiz []models.QuizQuestion
	ctrl.DB.Where("course_id = ?", courseID).Order("order_index asc, id asc").Find(&quiz)

	var ratings []models.CourseRating
	ctrl.DB.Where("course_id = ?", courseID).Find(&ratings)

	isEnrolled := false
	if userID, ok := authedUser(c); ok {
		var count int64
		ctrl.DB.Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).Count(&count)
		isEnrolled = count > 0
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", fiber.Map{
		"course":      course,
		"chapters":    content,
		"quiz":        quiz,
		"ratings":     ratings,
		"is_enrolled": isEnrolled,
	})
}
