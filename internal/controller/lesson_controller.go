package controller

import (
	"errors"
	"strconv"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	Service *service.LessonService
}

func NewLessonController(svc *service.LessonService) *LessonController {
	return &LessonController{Service: svc}
}

type completeLessonRequest struct {
	Score *float64 `json:"score" binding:"omitempty,gte=0,lte=100"`
}

// @Summary Complete a lesson
// @Description Marks the lesson finished and advances the enrollment pointer
// @Tags lessons
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param lessonId path int true "Lesson ID"
// @Param body body completeLessonRequest false "Optional score"
// @Success 200 {object} util.Response
// @Router /lessons/{lessonId}/complete [post]
func (c *LessonController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	lessonID, err := strconv.ParseUint(ctx.Param("lessonId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	var req completeLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.Complete(user.UserID, uint(lessonID), req.Score)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound), errors.Is(err, util.ErrCourseNotFound):
			util.Error(ctx, 404, err.Error())
		case errors.Is(err, util.ErrNotEnrolled):
			util.Error(ctx, 403, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}
