package models

// MedicalReport is one item of the medical reports table. patientId and doctorId
// are opaque; nothing checks them against other records.
type MedicalReport struct {
	ReportID      string `dynamodbav:"reportId" json:"reportId"`
	PatientID     string `dynamodbav:"patientId" json:"patientId"`
	DoctorID      string `dynamodbav:"doctorId" json:"doctorId"`
	ReportContent string `dynamodbav:"reportContent" json:"reportContent"`
	DoctorNotes   string `dynamodbav:"doctorNotes" json:"doctorNotes"`
	CreatedAt     string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt     string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// CreateReportRequest represents the request payload for POST /reports
type CreateReportRequest struct {
	PatientID     string `json:"patientId" validate:"required,max=128"`
	DoctorID      string `json:"doctorId" validate:"required,max=128"`
	ReportContent string `json:"reportContent" validate:"required"`
}

// UpdateReportRequest merges whichever fields are present into the report
type UpdateReportRequest struct {
	ReportContent *string `json:"reportContent,omitempty"`
	DoctorNotes   *string `json:"doctorNotes,omitempty"`
}

func (r *UpdateReportRequest) IsEmpty() bool {
	return r.ReportContent == nil && r.DoctorNotes == nil
}

type ReportListResponse struct {
	Reports []MedicalReport `json:"reports"`
	Count   int             `json:"count"`
}
