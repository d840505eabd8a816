package service

import (
	"errors"
	"strings"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/monitoring"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateService struct {
	CertificateRepo *repository.CertificateRepository
	UserRepo        *repository.UserRepository
	CourseRepo      *repository.CourseRepository
	UserCourseRepo  *repository.UserCourseRepository
}

func NewCertificateService(
	certificateRepo *repository.CertificateRepository,
	userRepo *repository.UserRepository,
	courseRepo *repository.CourseRepository,
	userCourseRepo *repository.UserCourseRepository,
) *CertificateService {
	return &CertificateService{
		CertificateRepo: certificateRepo,
		UserRepo:        userRepo,
		CourseRepo:      courseRepo,
		UserCourseRepo:  userCourseRepo,
	}
}

func newCertificateCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:12]
}

// Issue creates the one certificate a user can hold for a course. Eligibility
// is course completion; issuance is never triggered by the completion flow
// itself, callers invoke it separately.
func (s *CertificateService) Issue(userID uint, courseID string, templateID *string) (*model.Certificate, error) {
	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	enrollment, err := s.UserCourseRepo.FindByUserAndCourse(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	if !enrollment.IsCompleted {
		return nil, util.ErrCourseNotCompleted
	}

	_, err = s.CertificateRepo.FindByUserAndCourse(userID, courseID)
	if err == nil {
		return nil, util.ErrCertificateExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cert := &model.Certificate{
		UserID:     userID,
		CourseID:   courseID,
		TemplateID: templateID,
		Code:       newCertificateCode(),
		IssuedAt:   time.Now(),
	}
	if err := s.CertificateRepo.Create(cert); err != nil {
		// The unique index backs up the pre-check under concurrency.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrCertificateExists
		}
		return nil, err
	}

	monitoring.CertificatesIssued.Inc()
	return cert, nil
}

func (s *CertificateService) ListByUser(userID uint) ([]model.Certificate, error) {
	return s.CertificateRepo.ListByUser(userID)
}

// GetByID returns a certificate to its owner; staff can read any.
func (s *CertificateService) GetByID(id string, requesterID uint, role model.UserRole) (*model.Certificate, error) {
	cert, err := s.CertificateRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	if cert.UserID != requesterID && role != model.Admin && role != model.Instructor {
		return nil, util.ErrPermissionDenied
	}
	return cert, nil
}

// Verify is the public lookup by certificate code.
func (s *CertificateService) Verify(code string) (*model.Certificate, error) {
	cert, err := s.CertificateRepo.FindByCode(code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCertificateNotFound
	}
	return cert, err
}
