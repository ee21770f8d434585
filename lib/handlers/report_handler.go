// Package handlers holds the route handlers served through api.Pipeline and the
// Cognito trigger handlers.
package handlers

import (
	"clinic/lib/api"
	"clinic/lib/apperrors"
	"clinic/lib/data"
	"clinic/lib/models"
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReportHandler serves the medical report CRUD routes
type ReportHandler struct {
	Repository data.ReportRepository
	Logger     *logrus.Logger
	Now        func() time.Time
	NewID      func() string
}

// NewReportHandler creates a handler with the wall clock and random uuids
func NewReportHandler(repository data.ReportRepository, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		Repository: repository,
		Logger:     logger,
		Now:        time.Now,
		NewID:      func() string { return uuid.New().String() },
	}
}

func (h *ReportHandler) Routes() []api.Route {
	return []api.Route{
		{
			Method:         http.MethodPost,
			Resource:       "/reports",
			RequiredFields: []string{"patientId", "doctorId", "reportContent"},
			Handle:         h.CreateReport,
		},
		{Method: http.MethodGet, Resource: "/reports/{reportId}", Handle: h.GetReport},
		{Method: http.MethodPut, Resource: "/reports/{reportId}", Handle: h.UpdateReport},
		{Method: http.MethodDelete, Resource: "/reports/{reportId}", Handle: h.DeleteReport},
		{Method: http.MethodGet, Resource: "/reports/patient/{patientId}", Handle: h.ListPatientReports},
		{Method: http.MethodGet, Resource: "/reports/doctor/{doctorId}", Handle: h.ListDoctorReports},
	}
}

// CreateReport handles POST /reports
func (h *ReportHandler) CreateReport(ctx context.Context, req *api.Request) (*api.Result, error) {
	var createRequest models.CreateReportRequest
	if err := req.Decode(&createRequest); err != nil {
		return nil, err
	}

	now := h.timestamp()
	report := &models.MedicalReport{
		ReportID:      h.NewID(),
		PatientID:     createRequest.PatientID,
		DoctorID:      createRequest.DoctorID,
		ReportContent: createRequest.ReportContent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Repository.Create(ctx, report); err != nil {
		return nil, err
	}

	h.Logger.WithFields(logrus.Fields{
		"operation":  "CreateReport",
		"report_id":  report.ReportID,
		"patient_id": report.PatientID,
		"actor":      req.Claims.Actor(),
	}).Info("Medical report created")

	return api.Created(report), nil
}

// GetReport handles GET /reports/{reportId}
func (h *ReportHandler) GetReport(ctx context.Context, req *api.Request) (*api.Result, error) {
	report, err := h.Repository.GetByID(ctx, req.PathParam("reportId"))
	if err != nil {
		return nil, err
	}
	return api.OK(report), nil
}

// UpdateReport handles PUT /reports/{reportId}
func (h *ReportHandler) UpdateReport(ctx context.Context, req *api.Request) (*api.Result, error) {
	var updateRequest models.UpdateReportRequest
	if err := req.Decode(&updateRequest); err != nil {
		return nil, err
	}
	if updateRequest.IsEmpty() {
		return nil, apperrors.NewValidation("At least one of reportContent, doctorNotes is required")
	}

	reportID := req.PathParam("reportId")
	report, err := h.Repository.Update(ctx, reportID, &updateRequest, h.timestamp())
	if err != nil {
		return nil, err
	}

	h.Logger.WithFields(logrus.Fields{
		"operation": "UpdateReport",
		"report_id": reportID,
		"actor":     req.Claims.Actor(),
	}).Info("Medical report updated")

	return api.OK(report), nil
}

// DeleteReport handles DELETE /reports/{reportId}
func (h *ReportHandler) DeleteReport(ctx context.Context, req *api.Request) (*api.Result, error) {
	reportID := req.PathParam("reportId")
	if err := h.Repository.Delete(ctx, reportID); err != nil {
		return nil, err
	}

	h.Logger.WithFields(logrus.Fields{
		"operation": "DeleteReport",
		"report_id": reportID,
		"actor":     req.Claims.Actor(),
	}).Info("Medical report deleted")

	return api.NoContent(), nil
}

// ListPatientReports handles GET /reports/patient/{patientId}
func (h *ReportHandler) ListPatientReports(ctx context.Context, req *api.Request) (*api.Result, error) {
	reports, err := h.Repository.ListByPatient(ctx, req.PathParam("patientId"))
	if err != nil {
		return nil, err
	}
	return api.OK(models.ReportListResponse{Reports: reports, Count: len(reports)}), nil
}

// ListDoctorReports handles GET /reports/doctor/{doctorId}
func (h *ReportHandler) ListDoctorReports(ctx context.Context, req *api.Request) (*api.Result, error) {
	reports, err := h.Repository.ListByDoctor(ctx, req.PathParam("doctorId"))
	if err != nil {
		return nil, err
	}
	return api.OK(models.ReportListResponse{Reports: reports, Count: len(reports)}), nil
}

func (h *ReportHandler) timestamp() string {
	return h.Now().UTC().Format(time.RFC3339)
}
