package models

// Appointment is read from the appointments table by the aggregation report only
type Appointment struct {
	AppointmentID   string `dynamodbav:"appointmentId" json:"appointmentId"`
	RecordType      string `dynamodbav:"recordType" json:"-"`
	PatientID       string `dynamodbav:"patientId" json:"patientId,omitempty"`
	DoctorID        string `dynamodbav:"doctorId" json:"doctorId,omitempty"`
	AppointmentDate string `dynamodbav:"appointmentDate" json:"appointmentDate"`
	Status          string `dynamodbav:"status" json:"status"`
}

// MonthlyAppointmentSummary counts appointments per status for one YYYY-MM month
type MonthlyAppointmentSummary struct {
	Month     string `json:"month"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
	Scheduled int    `json:"scheduled"`
	Other     int    `json:"other"`
}

type AggregatedReportResponse struct {
	Type      string                      `json:"type"`
	Range     string                      `json:"range"`
	StartDate string                      `json:"startDate,omitempty"`
	EndDate   string                      `json:"endDate"`
	Data      []MonthlyAppointmentSummary `json:"data"`
}
