package controller

import (
	"errors"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	Service *service.ModuleService
}

func NewModuleController(svc *service.ModuleService) *ModuleController {
	return &ModuleController{Service: svc}
}

// @Summary List modules with progress
// @Tags modules
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/modules [get]
func (c *ModuleController) ListWithProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	resp, err := c.Service.ListWithProgress(user.UserID, ctx.Param("courseId"), ctx.Query("slug"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNotEnrolled):
			util.Error(ctx, 403, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resp)
}

// @Summary Unlock the next module
// @Description Manual advance; requires the current module to be 100% complete
// @Tags modules
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/modules/unlock-next [post]
func (c *ModuleController) UnlockNext(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.UnlockNext(user.UserID, ctx.Param("courseId"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrNotEnrolled):
			util.Error(ctx, 403, err.Error())
		case errors.Is(err, util.ErrModuleIncomplete),
			errors.Is(err, util.ErrNoNextModule),
			errors.Is(err, util.ErrCourseEmpty):
			util.UnprocessableEntity(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

type setCurrentModuleRequest struct {
	ModuleID uint `json:"moduleId" binding:"required"`
}

// @Summary Jump to a module
// @Description Sets the enrollment's current module, preserving the current task when it still belongs there
// @Tags modules
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param body body setCurrentModuleRequest true "Target module"
// @Success 200 {object} util.Response
// @Router /courses/{courseId}/modules/current [put]
func (c *ModuleController) SetCurrent(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req setCurrentModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	uc, err := c.Service.SetCurrent(user.UserID, ctx.Param("courseId"), req.ModuleID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrModuleNotFound):
			util.Error(ctx, 404, err.Error())
		case errors.Is(err, util.ErrNotEnrolled):
			util.Error(ctx, 403, err.Error())
		case errors.Is(err, util.ErrModuleNotInCourse):
			util.UnprocessableEntity(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"userCourse": uc})
}
