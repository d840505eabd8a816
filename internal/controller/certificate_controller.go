package controller

import (
	"errors"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	Service *service.CertificateService
}

func NewCertificateController(svc *service.CertificateService) *CertificateController {
	return &CertificateController{Service: svc}
}

type issueCertificateRequest struct {
	CourseID   string  `json:"courseId" binding:"required"`
	TemplateID *string `json:"templateId"`
}

// @Summary Issue a certificate
// @Description Issues a completion certificate for the authenticated user; at most one per user and course
// @Tags certificates
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body issueCertificateRequest true "Course to certify"
// @Success 201 {object} util.Response
// @Router /certificates [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req issueCertificateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cert, err := c.Service.Issue(user.UserID, req.CourseID, req.TemplateID)
	if err != nil {
		c.writeIssueError(ctx, err)
		return
	}

	util.Created(ctx, cert)
}

type adminIssueCertificateRequest struct {
	UserID     uint    `json:"userId" binding:"required"`
	CourseID   string  `json:"courseId" binding:"required"`
	TemplateID *string `json:"templateId"`
}

// @Summary Issue a certificate on behalf of a user
// @Tags certificates
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body adminIssueCertificateRequest true "User and course to certify"
// @Success 201 {object} util.Response
// @Router /admin/certificates [post]
func (c *CertificateController) AdminIssue(ctx *gin.Context) {
	var req adminIssueCertificateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cert, err := c.Service.Issue(req.UserID, req.CourseID, req.TemplateID)
	if err != nil {
		c.writeIssueError(ctx, err)
		return
	}

	util.Created(ctx, cert)
}

func (c *CertificateController) writeIssueError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound), errors.Is(err, util.ErrCourseNotFound):
		util.Error(ctx, 404, err.Error())
	case errors.Is(err, util.ErrNotEnrolled):
		util.Error(ctx, 403, err.Error())
	case errors.Is(err, util.ErrCertificateExists):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrCourseNotCompleted):
		util.UnprocessableEntity(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// @Summary List my certificates
// @Tags certificates
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	certs, err := c.Service.ListByUser(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"certificates": certs})
}

// @Summary Get a certificate
// @Tags certificates
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Certificate ID"
// @Success 200 {object} util.Response
// @Router /certificates/{id} [get]
func (c *CertificateController) GetByID(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	cert, err := c.Service.GetByID(ctx.Param("id"), user.UserID, user.Role)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCertificateNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, cert)
}

// @Summary Verify a certificate by code
// @Description Public endpoint; no authentication required
// @Tags certificates
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} util.Response
// @Router /public/certificates/verify/{code} [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	cert, err := c.Service.Verify(ctx.Param("code"))
	if err != nil {
		if errors.Is(err, util.ErrCertificateNotFound) {
			util.Success(ctx, gin.H{"valid": false})
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"valid": true, "certificate": cert})
}
