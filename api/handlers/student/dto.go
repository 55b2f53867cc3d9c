package student

import (
	"time"

	"edusuite/internal/common"
	studentSvc "edusuite/internal/student"
)

const dateLayout = "2006-01-02"

// StudentRequest body of POST and PUT /api/students. Dates use YYYY-MM-DD.
type StudentRequest struct {
	AdmissionNumber string `json:"admissionNumber" binding:"required,max=50"`
	FirstName       string `json:"firstName" binding:"required,max=100"`
	LastName        string `json:"lastName" binding:"required,max=100"`
	DateOfBirth     string `json:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	Gender          string `json:"gender" binding:"max=20"`
	ContactNumber   string `json:"contactNumber" binding:"max=20"`
	EmailAddress    string `json:"emailAddress" binding:"omitempty,email,max=256"`
	Address         string `json:"address" binding:"max=500"`
	AdmissionDate   string `json:"admissionDate" binding:"required,datetime=2006-01-02"`
	CurrentClass    string `json:"currentClass" binding:"required,max=50"`
	Section         string `json:"section" binding:"max=10"`
}

// ListQuery query string of GET /api/students. Paging fields are pointers so
// an explicit 0 is rejected while an absent value takes the default.
type ListQuery struct {
	Page     *int   `form:"page" binding:"omitempty,min=1"`
	PageSize *int   `form:"page_size" binding:"omitempty,min=1"`
	Class    string `form:"class"`
	Section  string `form:"section"`
	Search   string `form:"q"`
}

func (q ListQuery) pagination() common.PaginationRequest {
	page := common.DefaultPagination()
	if q.Page != nil {
		page.Page = *q.Page
	}
	if q.PageSize != nil {
		page.PageSize = *q.PageSize
	}
	return page
}

func (r StudentRequest) toParams() (studentSvc.Params, error) {
	dob, err := time.Parse(dateLayout, r.DateOfBirth)
	if err != nil {
		return studentSvc.Params{}, err
	}
	admitted, err := time.Parse(dateLayout, r.AdmissionDate)
	if err != nil {
		return studentSvc.Params{}, err
	}
	return studentSvc.Params{
		AdmissionNumber: r.AdmissionNumber,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		DateOfBirth:     dob,
		Gender:          r.Gender,
		ContactNumber:   r.ContactNumber,
		EmailAddress:    r.EmailAddress,
		Address:         r.Address,
		AdmissionDate:   admitted,
		CurrentClass:    r.CurrentClass,
		Section:         r.Section,
	}, nil
}
