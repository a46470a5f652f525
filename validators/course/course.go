package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// CourseID validates the :id route param and stores it as uint
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil || id == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
		}
		c.Locals("courseID", uint(id))
		return c.Next()
	}
}

// LectureComplete validates the :course_id and :lecture_id route params
func LectureComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 32)
		if err != nil || courseID == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
		}
		lectureID, err := strconv.ParseUint(c.Params("lecture_id"), 10, 32)
		if err != nil || lectureID == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lecture id!", nil)
		}
		c.Locals("courseID", uint(courseID))
		c.Locals("lectureID", uint(lectureID))
		return c.Next()
	}
}

// SubmitQuiz validates the quiz submission body
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Answers []string `json:"answers"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.Answers) == 0 {
			errors["answers"] = "Answers are required!"
		}
		for _, a := range reqData.Answers {
			if strings.TrimSpace(a) == "" {
				errors["answers"] = "Answers must not be empty!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

// AddRating validates the rating body
func AddRating() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Rating int `json:"rating"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Rating < 1 || reqData.Rating > 5 {
			errors["rating"] = "Rating must be between 1 and 5!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRating", reqData)
		return c.Next()
	}
}

// CourseList validates optional pagination query params
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `query:"page"`
			Limit *int `query:"limit"`
		})

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)

		if reqData.Page != nil && *reqData.Page < 1 {
			errors["page"] = "Page must be greater than 0!"
		}
		if reqData.Limit != nil && *reqData.Limit < 1 {
			errors["limit"] = "Limit must be greater than 0!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedList", reqData)
		return c.Next()
	}
}
