package handlers

import (
	"clinic/lib/api"
	"clinic/lib/apperrors"
	"clinic/lib/data"
	"clinic/lib/models"
	"clinic/lib/reporting"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AppointmentHandler serves the aggregated appointment report
type AppointmentHandler struct {
	Repository data.AppointmentRepository
	Logger     *logrus.Logger
	Now        func() time.Time
}

func NewAppointmentHandler(repository data.AppointmentRepository, logger *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		Repository: repository,
		Logger:     logger,
		Now:        time.Now,
	}
}

func (h *AppointmentHandler) Routes() []api.Route {
	return []api.Route{
		{Method: http.MethodGet, Resource: "/reports/aggregated", Handle: h.GetAggregatedReport},
	}
}

// GetAggregatedReport handles GET /reports/aggregated?type=monthly&range=6m
func (h *AppointmentHandler) GetAggregatedReport(ctx context.Context, req *api.Request) (*api.Result, error) {
	reportType := strings.ToLower(req.Query("type"))
	if reportType == "" {
		reportType = reporting.TypeMonthly
	}
	if reportType != reporting.TypeMonthly {
		return nil, apperrors.NewValidation("Unsupported report type: " + req.Query("type"))
	}

	rangeValue := strings.ToLower(req.Query("range"))
	if rangeValue == "" {
		rangeValue = reporting.DefaultRange
	}
	window, err := reporting.ParseRange(rangeValue, h.Now())
	if err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	appointments, err := h.Repository.ListByDateRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	summaries, skipped := reporting.AggregateByMonth(appointments)
	if skipped > 0 {
		h.Logger.WithFields(logrus.Fields{
			"operation": "GetAggregatedReport",
			"skipped":   skipped,
		}).Warn("Skipped appointments with unreadable dates")
	}

	h.Logger.WithFields(logrus.Fields{
		"operation":    "GetAggregatedReport",
		"range":        rangeValue,
		"appointments": len(appointments),
		"months":       len(summaries),
	}).Debug("Aggregated appointments")

	response := models.AggregatedReportResponse{
		Type:    reportType,
		Range:   rangeValue,
		EndDate: window.End.Format("2006-01-02"),
		Data:    summaries,
	}
	if !window.Start.IsZero() {
		response.StartDate = window.Start.Format("2006-01-02")
	}
	return api.OK(response), nil
}
