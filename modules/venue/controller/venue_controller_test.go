package controller

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/constants"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/storage"
	"github.com/liyxianren/mmyq/core/utils"
	"github.com/liyxianren/mmyq/modules/venue/dto"
)

type mockVenueService struct {
	getAvailabilityFn  func(ctx context.Context, dateStr, timeSlot string) (*dto.AvailabilityResponse, *errors.AppError)
	createSubmissionFn func(ctx context.Context, userID int64, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, *errors.AppError)
	getMySubmissionsFn func(ctx context.Context, userID int64) ([]dto.SubmissionResponse, *errors.AppError)
}

func (m *mockVenueService) GetAvailability(ctx context.Context, dateStr, timeSlot string) (*dto.AvailabilityResponse, *errors.AppError) {
	return m.getAvailabilityFn(ctx, dateStr, timeSlot)
}
func (m *mockVenueService) CreateSubmission(ctx context.Context, userID int64, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, *errors.AppError) {
	return m.createSubmissionFn(ctx, userID, req)
}
func (m *mockVenueService) GetMySubmissions(ctx context.Context, userID int64) ([]dto.SubmissionResponse, *errors.AppError) {
	return m.getMySubmissionsFn(ctx, userID)
}
func (m *mockVenueService) GetSummary(ctx context.Context, dateStr string) (*dto.SummaryResponse, *errors.AppError) {
	return nil, nil
}
func (m *mockVenueService) GetDateOverview(ctx context.Context, dateStr string) ([]dto.VenueDetailResponse, *errors.AppError) {
	return nil, nil
}
func (m *mockVenueService) GetPendingSubmissions(ctx context.Context) ([]dto.SubmissionResponse, *errors.AppError) {
	return nil, nil
}
func (m *mockVenueService) GetSubmission(ctx context.Context, id int64) (*dto.SubmissionResponse, *errors.AppError) {
	return nil, nil
}
func (m *mockVenueService) GetRecentSubmissions(ctx context.Context, limit int) ([]dto.SubmissionResponse, *errors.AppError) {
	return nil, nil
}
func (m *mockVenueService) ApproveSubmission(ctx context.Context, id int64) *errors.AppError {
	return nil
}
func (m *mockVenueService) DeleteSubmission(ctx context.Context, id int64) *errors.AppError {
	return nil
}
func (m *mockVenueService) DeleteVenue(ctx context.Context, id int64) *errors.AppError { return nil }
func (m *mockVenueService) GetVenueInfo(ctx context.Context, venueID int64) (*dto.VenueDetailResponse, *errors.AppError) {
	return nil, nil
}
func (m *mockVenueService) GetExchangeList(ctx context.Context) ([]dto.SubmissionResponse, *errors.AppError) {
	return nil, nil
}
func (m *mockVenueService) MigrateVenue(ctx context.Context, req *dto.MigrateVenueRequest) (*dto.MigrateVenueResponse, *errors.AppError) {
	return nil, nil
}

func testUploadConfig(t *testing.T) config.UploadConfig {
	return config.UploadConfig{
		Driver:            "local",
		LocalDir:          t.TempDir(),
		MaxBytes:          1 << 20,
		AllowedExtensions: []string{"png"},
	}
}

func TestGetAvailabilityEndpoint(t *testing.T) {
	svc := &mockVenueService{
		getAvailabilityFn: func(ctx context.Context, dateStr, timeSlot string) (*dto.AvailabilityResponse, *errors.AppError) {
			assert.Equal(t, "2024-01-01", dateStr)
			assert.Equal(t, "slot_12", timeSlot)
			return &dto.AvailabilityResponse{Available: []int{2, 3}, Occupied: []int{1}}, nil
		},
	}
	ctrl := NewVenueController(svc, nil, testUploadConfig(t))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues/availability?date=2024-01-01&time_slot=slot_12", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ctrl.GetAvailability(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"occupied":[1]`)
}

func TestGetAvailabilityEndpointRequiresParams(t *testing.T) {
	ctrl := NewVenueController(&mockVenueService{}, nil, testUploadConfig(t))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues/availability?date=2024-01-01", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := ctrl.GetAvailability(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func submissionForm(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	require.NoError(t, w.WriteField("venue_date", "2024-01-01"))
	require.NoError(t, w.WriteField("registration_name", "Zhang San"))
	require.NoError(t, w.WriteField("venues[0][number]", "5"))
	require.NoError(t, w.WriteField("venues[0][time_slot]", "slot_12"))
	require.NoError(t, w.WriteField("venues[1][number]", "6"))
	require.NoError(t, w.WriteField("venues[1][time_slot]", "slot_13"))
	require.NoError(t, w.WriteField("venues[1][plus_one_name]", "Li Si"))

	if withFile {
		fw, err := w.CreateFormFile("venues[0][screenshot]", "proof.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateSubmissionEndpointParsesForm(t *testing.T) {
	uploadCfg := testUploadConfig(t)
	store, err := storage.NewObjectStorage(uploadCfg)
	require.NoError(t, err)

	var captured *dto.CreateSubmissionRequest
	svc := &mockVenueService{
		createSubmissionFn: func(ctx context.Context, userID int64, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, *errors.AppError) {
			assert.Equal(t, int64(9), userID)
			captured = req
			return &dto.SubmissionResponse{ID: 1}, nil
		},
	}
	ctrl := NewVenueController(svc, store, uploadCfg)

	body, contentType := submissionForm(t, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/private/submissions", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(constants.ContextTokenData, &utils.TokenClaims{SubjectID: 9, Role: utils.RoleUser})

	require.NoError(t, ctrl.CreateSubmission(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, captured)
	assert.Equal(t, "2024-01-01", captured.VenueDate)
	assert.Equal(t, "Zhang San", captured.RegistrationName)
	require.Len(t, captured.Venues, 2)
	assert.Equal(t, 5, captured.Venues[0].Number)
	assert.Equal(t, "slot_12", captured.Venues[0].TimeSlot)
	assert.NotEmpty(t, captured.Venues[0].Screenshot)
	assert.Equal(t, "Li Si", captured.Venues[1].PlusOneName)
	assert.Empty(t, captured.Venues[1].Screenshot)
}

func TestCreateSubmissionEndpointRequiresAuth(t *testing.T) {
	ctrl := NewVenueController(&mockVenueService{}, nil, testUploadConfig(t))

	body, contentType := submissionForm(t, false)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/private/submissions", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := ctrl.CreateSubmission(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSubmissionEndpointRejectsBadExtension(t *testing.T) {
	uploadCfg := testUploadConfig(t)
	store, err := storage.NewObjectStorage(uploadCfg)
	require.NoError(t, err)
	ctrl := NewVenueController(&mockVenueService{}, store, uploadCfg)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("venue_date", "2024-01-01"))
	require.NoError(t, w.WriteField("registration_name", "Zhang San"))
	require.NoError(t, w.WriteField("venues[0][number]", "5"))
	require.NoError(t, w.WriteField("venues[0][time_slot]", "slot_12"))
	fw, err := w.CreateFormFile("venues[0][screenshot]", "malware.exe")
	require.NoError(t, err)
	_, err = fw.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/private/submissions", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(constants.ContextTokenData, &utils.TokenClaims{SubjectID: 9, Role: utils.RoleUser})

	require.NoError(t, ctrl.CreateSubmission(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
