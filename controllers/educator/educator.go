package controllers

import (
	"encoding/json"
	"log"

	"lms/gateway"
	"lms/middleware"
	"lms/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Controller bundles the educator-facing course authoring handlers
type Controller struct {
	DB        *gorm.DB
	Storage   gateway.MediaStorage
	Validator *validator.Validate
}

func New(db *gorm.DB, storage gateway.MediaStorage) *Controller {
	return &Controller{DB: db, Storage: storage, Validator: validator.New()}
}

type lecturePayload struct {
	Title           string `json:"title" validate:"required,min=3"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0"`
}

type chapterPayload struct {
	Title    string           `json:"title" validate:"required,min=3"`
	Lectures []lecturePayload `json:"lectures" validate:"dive"`
}

type coursePayload struct {
	Title           string           `json:"title" validate:"required,min=3"`
	Description     string           `json:"description" validate:"required,min=5"`
	PriceCents      int64            `json:"price_cents" validate:"gt=0"`
	DiscountPercent int              `json:"discount_percent" validate:"gte=0,lte=100"`
	Currency        string           `json:"currency" validate:"omitempty,len=3"`
	Chapters        []chapterPayload `json:"chapters" validate:"dive"`
}

type quizQuestionPayload struct {
	Question           string   `json:"question" validate:"required,min=3"`
	Options            []string `json:"options" validate:"required,min=2"`
	CorrectAnswerIndex int      `json:"correct_answer_index" validate:"gte=0"`
}

// CreateCourse creates a course with chapters and lectures from a multipart
// form: a courseData JSON field plus an optional thumbnail image uploaded to
// the media storage provider.
func (ctrl *Controller) CreateCourse(c *fiber.Ctx) error {
	educatorID, ok := c.Locals("userId").(string)
	if !ok || educatorID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	raw := c.FormValue("courseData")
	if raw == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "courseData is required!", nil)
	}

	var payload coursePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid courseData JSON!", nil)
	}
	if err := ctrl.Validator.Struct(&payload); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed: "+err.Error(), nil)
	}

	thumbnailURL := ""
	if file, err := c.FormFile("image"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Could not read thumbnail!", nil)
		}
		defer src.Close()

		url, err := ctrl.Storage.UploadImage(c.Context(), file.Filename, src)
		if err != nil {
			log.Printf("Thumbnail upload failed: %v", err)
			return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Thumbnail upload failed, try again!", nil)
		}
		thumbnailURL = url
	}

	course := models.Course{
		Title:           payload.Title,
		Description:     payload.Description,
		EducatorID:      educatorID,
		PriceCents:      payload.PriceCents,
		DiscountPercent: payload.DiscountPercent,
		Currency:        payload.Currency,
		ThumbnailURL:    thumbnailURL,
		IsPublished:     true,
	}

	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		for ci, ch := range payload.Chapters {
			chapter := models.Chapter{CourseID: course.ID, Title: ch.Title, OrderIndex: ci}
			if err := tx.Create(&chapter).Error; err != nil {
				return err
			}
			for li, lec := range ch.Lectures {
				lecture := models.Lecture{
					ChapterID:       chapter.ID,
					CourseID:        course.ID,
					Title:           lec.Title,
					DurationMinutes: lec.DurationMinutes,
					OrderIndex:      li,
				}
				if err := tx.Create(&lecture).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course added!", course)
}

// UpdateQuiz overwrites the course quiz. Only the owning educator may do this.
func (ctrl *Controller) UpdateQuiz(c *fiber.Ctx) error {
	educatorID, ok := c.Locals("userId").(string)
	if !ok || educatorID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	var course models.Course
	if err := ctrl.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if course.EducatorID != educatorID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only the course educator can edit the quiz!", nil)
	}

	reqData := new(struct {
		Quiz []quizQuestionPayload `json:"quiz"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	for _, q := range reqData.Quiz {
		if err := ctrl.Validator.Struct(&q); err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed: "+err.Error(), nil)
		}
		if q.CorrectAnswerIndex >= len(q.Options) {
			return middleware.JsonResponse(c, fiber.StatusUnprocessableEntity, false, "correct_answer_index out of range!", nil)
		}
	}

	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}
		for i, q := range reqData.Quiz {
			opts, err := json.Marshal(q.Options)
			if err != nil {
				return err
			}
			question := models.QuizQuestion{
				CourseID:           courseID,
				Question:           q.Question,
				Options:            datatypes.JSON(opts),
				CorrectAnswerIndex: q.CorrectAnswerIndex,
				OrderIndex:         i,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz updated successfully!", nil)
}

// GetCourses lists the educator's own courses
func (ctrl *Controller) GetCourses(c *fiber.Ctx) error {
	educatorID, ok := c.Locals("userId").(string)
	if !ok || educatorID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var courses []models.Course
	if err := ctrl.DB.Where("educator_id = ?", educatorID).Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
	})
}

// Dashboard aggregates earnings, enrollment counts and course count for the
// educator
func (ctrl *Controller) Dashboard(c *fiber.Ctx) error {
	educatorID, ok := c.Locals("userId").(string)
	if !ok || educatorID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var courseIDs []uint
	if err := ctrl.DB.Model(&models.Course{}).
		Where("educator_id = ?", educatorID).
		Pluck("id", &courseIDs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard data!", nil)
	}

	var totalEarnings int64
	var totalStudents int64
	if len(courseIDs) > 0 {
		ctrl.DB.Model(&models.Purchase{}).
			Where("course_id IN ? AND status = ?", courseIDs, models.PurchaseCompleted).
			Select("COALESCE(SUM(amount_cents), 0)").Scan(&totalEarnings)
		ctrl.DB.Model(&models.Enrollment{}).
			Where("course_id IN ?", courseIDs).Count(&totalStudents)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard data fetched successfully!", fiber.Map{
		"total_earnings_cents": totalEarnings,
		"enrolled_students":    totalStudents,
		"total_courses":        len(courseIDs),
	})
}

// GetEnrolledStudents lists completed purchases for the educator's courses
// with student and course info
func (ctrl *Controller) GetEnrolledStudents(c *fiber.Ctx) error {
	educatorID, ok := c.Locals("userId").(string)
	if !ok || educatorID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var courseIDs []uint
	if err := ctrl.DB.Model(&models.Course{}).
		Where("educator_id = ?", educatorID).
		Pluck("id", &courseIDs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch students!", nil)
	}

	type EnrolledStudent struct {
		StudentName  string `json:"student_name"`
		StudentImage string `json:"student_image"`
		CourseTitle  string `json:"course_title"`
		PurchaseDate string `json:"purchase_date"`
	}

	students := []EnrolledStudent{}
	if len(courseIDs) > 0 {
		var purchases []models.Purchase
		if err := ctrl.DB.
			Where("course_id IN ? AND status = ?", courseIDs, models.PurchaseCompleted).
			Order("created_at desc").
			Find(&purchases).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch students!", nil)
		}

		for _, purchase := range purchases {
			var user models.User
			var course models.Course
			ctrl.DB.First(&user, "id = ?", purchase.UserID)
			ctrl.DB.First(&course, "id = ?", purchase.CourseID)
			students = append(students, EnrolledStudent{
				StudentName:  user.Name,
				StudentImage: user.ImageURL,
				CourseTitle:  course.Title,
				PurchaseDate: purchase.CreatedAt.Format("2006-01-02"),
			})
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled students fetched successfully!", fiber.Map{
		"enrolled_students": students,
	})
}
