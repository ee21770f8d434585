package handlers

import (
	"clinic/lib/api"
	"clinic/lib/apperrors"
	"clinic/lib/models"
	"context"
	"encoding/json"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestPipeline(routes ...api.Route) *api.Pipeline {
	p := api.NewPipeline(api.NewCORSPolicy("prod", []string{"https://admin.clinic.example.com"}), quietLogger(), false)
	p.Register(routes...)
	return p
}

func invoke(t *testing.T, p *api.Pipeline, method, path, body string) events.APIGatewayProxyResponse {
	t.Helper()
	response, err := p.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     method,
		Path:           path,
		Body:           body,
		Headers:        map[string]string{"Origin": "https://admin.clinic.example.com"},
		RequestContext: events.APIGatewayProxyRequestContext{RequestID: "req-1"},
	})
	require.NoError(t, err)
	return response
}

func invokeWithQuery(t *testing.T, p *api.Pipeline, path string, query map[string]string) events.APIGatewayProxyResponse {
	t.Helper()
	response, err := p.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            "GET",
		Path:                  path,
		QueryStringParameters: query,
	})
	require.NoError(t, err)
	return response
}

func decode(t *testing.T, body string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), v))
}

// fakeReportRepository mimics the conditional writes of ReportDao in memory
type fakeReportRepository struct {
	reports map[string]models.MedicalReport
	writes  int
}

func newFakeReportRepository() *fakeReportRepository {
	return &fakeReportRepository{reports: map[string]models.MedicalReport{}}
}

func (f *fakeReportRepository) Create(ctx context.Context, report *models.MedicalReport) error {
	if _, exists := f.reports[report.ReportID]; exists {
		return apperrors.NewConflict("Report already exists")
	}
	f.writes++
	f.reports[report.ReportID] = *report
	return nil
}

func (f *fakeReportRepository) GetByID(ctx context.Context, reportID string) (*models.MedicalReport, error) {
	report, ok := f.reports[reportID]
	if !ok {
		return nil, apperrors.NewNotFound("Report not found")
	}
	return &report, nil
}

func (f *fakeReportRepository) ListByPatient(ctx context.Context, patientID string) ([]models.MedicalReport, error) {
	return f.list(func(r models.MedicalReport) bool { return r.PatientID == patientID }), nil
}

func (f *fakeReportRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.MedicalReport, error) {
	return f.list(func(r models.MedicalReport) bool { return r.DoctorID == doctorID }), nil
}

func (f *fakeReportRepository) list(keep func(models.MedicalReport) bool) []models.MedicalReport {
	reports := []models.MedicalReport{}
	for _, report := range f.reports {
		if keep(report) {
			reports = append(reports, report)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt > reports[j].CreatedAt })
	return reports
}

func (f *fakeReportRepository) Update(ctx context.Context, reportID string, update *models.UpdateReportRequest, updatedAt string) (*models.MedicalReport, error) {
	report, ok := f.reports[reportID]
	if !ok {
		return nil, apperrors.NewNotFound("Report not found")
	}
	if update.ReportContent != nil {
		report.ReportContent = *update.ReportContent
	}
	if update.DoctorNotes != nil {
		report.DoctorNotes = *update.DoctorNotes
	}
	report.UpdatedAt = updatedAt
	f.writes++
	f.reports[reportID] = report
	return &report, nil
}

func (f *fakeReportRepository) Delete(ctx context.Context, reportID string) error {
	if _, ok := f.reports[reportID]; !ok {
		return apperrors.NewNotFound("Report not found")
	}
	f.writes++
	delete(f.reports, reportID)
	return nil
}

// fakeUserRepository keeps users in memory keyed by username
type fakeUserRepository struct {
	users      map[string]models.User
	listParams []models.ListUsersParams
	updates    []models.UpdateUserRequest
	err        error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: map[string]models.User{}}
}

func (f *fakeUserRepository) CreateUser(ctx context.Context, request *models.CreateUserRequest) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, exists := f.users[request.Email]; exists {
		return nil, apperrors.NewConflict("User already exists")
	}
	created := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	user := models.UserFromAttributes(request.Email, request.Attributes(), true, "CONFIRMED", &created, &created)
	f.users[request.Email] = user
	return &user, nil
}

func (f *fakeUserRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, apperrors.NewNotFound("User not found")
	}
	return &user, nil
}

func (f *fakeUserRepository) ListUsers(ctx context.Context, params models.ListUsersParams) (*models.UserListResponse, error) {
	f.listParams = append(f.listParams, params)
	users := []models.User{}
	for _, user := range f.users {
		users = append(users, user)
	}
	return &models.UserListResponse{Users: users, Count: len(users)}, nil
}

func (f *fakeUserRepository) UpdateUser(ctx context.Context, username string, request *models.UpdateUserRequest) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[username]
	if !ok {
		return nil, apperrors.NewNotFound("User not found")
	}
	f.updates = append(f.updates, *request)

	if request.FirstName != nil {
		user.FirstName = *request.FirstName
	}
	if request.LastName != nil {
		user.LastName = *request.LastName
	}
	if request.Phone != nil {
		user.Phone = *request.Phone
	}
	if request.Role != nil {
		user.Role = *request.Role
	}
	if request.ProfileImage != nil {
		user.ProfileImage = *request.ProfileImage
	}
	if request.Enabled != nil {
		user.Enabled = *request.Enabled
	}
	f.users[username] = user
	return &user, nil
}

// fakeImageStore records presign and delete requests
type fakeImageStore struct {
	presigned []string
	deleted   []string
	err       error
}

func (f *fakeImageStore) GenerateUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.presigned = append(f.presigned, key)
	return "https://profile-images.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc", nil
}

func (f *fakeImageStore) DeleteObject(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeAppointmentRepository struct {
	appointments []models.Appointment
	start, end   time.Time
	err          error
}

func (f *fakeAppointmentRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Appointment, error) {
	f.start, f.end = start, end
	if f.err != nil {
		return nil, f.err
	}
	return f.appointments, nil
}
