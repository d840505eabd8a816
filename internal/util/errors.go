package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrModuleNotFound      = errors.New("module not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrNotEnrolled         = errors.New("user is not enrolled in this course")
	ErrCertificateExists   = errors.New("certificate already issued for this course")
	ErrModuleIncomplete    = errors.New("current module is not completed")
	ErrNoNextModule        = errors.New("there is no next module to unlock")
	ErrCourseEmpty         = errors.New("course has no modules")
	ErrModuleNotInCourse   = errors.New("module does not belong to this course")
	ErrCourseNotCompleted  = errors.New("course is not completed yet")
	ErrPermissionDenied    = errors.New("permission denied")
)
