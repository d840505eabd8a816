package controller

import (
	"errors"
	"strconv"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Service *service.CourseService
}

func NewCourseController(svc *service.CourseService) *CourseController {
	return &CourseController{Service: svc}
}

// @Summary List courses
// @Tags courses
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response
// @Router /courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	courses, total, err := c.Service.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"items": courses, "total": total})
}

// @Summary Get a course by slug
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} util.Response
// @Router /courses/slug/{slug} [get]
func (c *CourseController) GetBySlug(ctx *gin.Context) {
	course, err := c.Service.GetBySlug(ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, course)
}

// @Summary Course roadmap
// @Description Full curriculum tree annotated with the user's unlock and progress state
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/roadmap [get]
func (c *CourseController) GetRoadmap(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	roadmap, err := c.Service.GetRoadmap(user.UserID, ctx.Param("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, roadmap)
}

// @Summary Continue learning
// @Description Resumes the user's current lesson, via the active course when no course id is given
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query string false "Course ID"
// @Success 200 {object} util.Response
// @Router /courses/continue [get]
func (c *CourseController) Continue(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	resp, err := c.Service.Continue(user.UserID, ctx.Query("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}
