package model

import "time"

// Certificate is issued at most once per (user, course). The template relation
// is an optional foreign reference, not inheritance.
type Certificate struct {
	UUIDBase
	UserID     uint    `gorm:"index:idx_user_course_cert,unique;not null" json:"userId"`
	CourseID   string  `gorm:"index:idx_user_course_cert,unique;type:varchar(36);not null" json:"courseId"`
	TemplateID *string `gorm:"type:varchar(36)" json:"templateId"`
	// Code is the public verification handle printed on the certificate.
	Code     string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	IssuedAt time.Time `json:"issuedAt"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}

type CertificateTemplate struct {
	UUIDBase
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (CertificateTemplate) TableName() string {
	return "certificate_templates"
}
