package student

import (
	"time"

	"edusuite/internal/common"
)

// Student is a tenant-scoped pupil record.
type Student struct {
	common.BaseEntity

	AdmissionNumber string    `json:"admissionNumber" gorm:"size:50;not null;index"`
	FirstName       string    `json:"firstName" gorm:"size:100;not null"`
	LastName        string    `json:"lastName" gorm:"size:100;not null"`
	DateOfBirth     time.Time `json:"dateOfBirth" gorm:"not null"`
	Gender          string    `json:"gender" gorm:"size:20"`
	ContactNumber   string    `json:"contactNumber" gorm:"size:20"`
	EmailAddress    string    `json:"emailAddress" gorm:"size:256"`
	Address         string    `json:"address" gorm:"size:500"`
	AdmissionDate   time.Time `json:"admissionDate" gorm:"not null"`
	CurrentClass    string    `json:"currentClass" gorm:"size:50;not null"`
	Section         string    `json:"section" gorm:"size:10"`
}

func (Student) TableName() string {
	return "students"
}
