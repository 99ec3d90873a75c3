package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lifelink/internal/donation/handler/mocks"
	donationModel "lifelink/internal/donation/models"
	"lifelink/internal/donation/service"
	"lifelink/internal/inventory"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/donation-mocks.go -package=mocks Service
type DonationHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *DonationHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestDonationHandlerSuite(t *testing.T) {
	suite.Run(t, new(DonationHandlerSuite))
}

func newTestHandler(t *testing.T) (*chi.Mux, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger, nil).Register(r)
	return r, mockService
}

func postDonation(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/blood-donation", body))
}

func (s *DonationHandlerSuite) TestRecordDonationCreated() {
	router, mockService := newTestHandler(s.T())

	donorID := domain.DonorID(uuid.New())
	bankID := domain.BloodBankID(uuid.New())
	createdAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	req := donationModel.RecordDonationRequest{
		DonorID:     donorID.String(),
		BloodBankID: bankID.String(),
		Units:       2,
		BloodType:   "O-",
	}
	result := &service.RecordResult{
		Donation: donationModel.Donation{
			ID:          domain.DonationID(uuid.New()),
			DonorID:     donorID,
			BloodBankID: bankID,
			Units:       2,
			BloodType:   domain.BloodTypeONeg,
			Status:      donationModel.DonationStatusRecorded,
			CreatedAt:   createdAt,
		},
		Inventory: inventory.Snapshot{
			BloodBankID: bankID,
			BloodType:   domain.BloodTypeONeg,
			Units:       2,
			MinUnits:    10,
		},
	}
	mockService.EXPECT().Record(gomock.Any(), req).Return(result, nil)

	w := postDonation(s.T(), router, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Donation recorded successfully", resp["message"])

	donation := resp["donation"].(map[string]any)
	assert.Equal(s.T(), "recorded", donation["status"])
	assert.Equal(s.T(), "O-", donation["bloodType"])
	assert.Equal(s.T(), float64(2), donation["units"])

	inv := resp["inventory"].(map[string]any)
	assert.Equal(s.T(), float64(2), inv["units"])
	assert.Equal(s.T(), bankID.String(), inv["bloodBankId"])
}

func (s *DonationHandlerSuite) TestRecordDonationMalformedBody() {
	router, _ := newTestHandler(s.T())

	w := testutil.DoRequest(router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/blood-donation", "{not json"))

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Invalid request", resp["error"])
}

func (s *DonationHandlerSuite) TestRecordDonationInvalidUnits() {
	router, mockService := newTestHandler(s.T())

	req := donationModel.RecordDonationRequest{
		DonorID:     uuid.NewString(),
		BloodBankID: uuid.NewString(),
		Units:       -1,
		BloodType:   "O-",
	}
	mockService.EXPECT().Record(gomock.Any(), req).
		Return(nil, dErrors.New(dErrors.CodeBadRequest, "units must be a positive number"))

	w := postDonation(s.T(), router, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Invalid request", resp["error"])
	assert.Contains(s.T(), resp["details"], "positive")
	// Rejected before the transaction: no rollback note applies.
	assert.NotContains(s.T(), resp, "rollback")
}

func (s *DonationHandlerSuite) TestRecordDonationTypeMismatch() {
	router, mockService := newTestHandler(s.T())

	req := donationModel.RecordDonationRequest{
		DonorID:     uuid.NewString(),
		BloodBankID: uuid.NewString(),
		Units:       2,
		BloodType:   "A+",
	}
	mockService.EXPECT().Record(gomock.Any(), req).
		Return(nil, dErrors.New(dErrors.CodeTypeMismatch, "Blood type mismatch: donor is O- but request declared A+"))

	w := postDonation(s.T(), router, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Validation failed", resp["error"])
	assert.Contains(s.T(), resp["details"], "Blood type mismatch")
	assert.Contains(s.T(), resp["rollback"], "rolled back")
}

func (s *DonationHandlerSuite) TestRecordDonationUnknownBank() {
	router, mockService := newTestHandler(s.T())

	bankID := uuid.NewString()
	req := donationModel.RecordDonationRequest{
		DonorID:     uuid.NewString(),
		BloodBankID: bankID,
		Units:       2,
		BloodType:   "O-",
	}
	mockService.EXPECT().Record(gomock.Any(), req).
		Return(nil, dErrors.Newf(dErrors.CodeNotFound, "Blood Bank with ID %s not found", bankID))

	w := postDonation(s.T(), router, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Validation failed", resp["error"])
	assert.Contains(s.T(), resp["details"], "Blood Bank with ID "+bankID+" not found")
}

func (s *DonationHandlerSuite) TestRecordDonationStoreFault() {
	router, mockService := newTestHandler(s.T())

	req := donationModel.RecordDonationRequest{
		DonorID:     uuid.NewString(),
		BloodBankID: uuid.NewString(),
		Units:       2,
		BloodType:   "O-",
	}
	mockService.EXPECT().Record(gomock.Any(), req).
		Return(nil, dErrors.Wrap(assertionError("pq: deadlock detected"), dErrors.CodeInternal, "failed to update inventory"))

	w := postDonation(s.T(), router, req)

	assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "Failed to process donation", resp["error"])
	// Store-specific detail must not leak.
	assert.NotContains(s.T(), resp["details"], "pq:")
	assert.Contains(s.T(), resp["rollback"], "no donation was recorded")
}

func (s *DonationHandlerSuite) TestListDonations() {
	router, mockService := newTestHandler(s.T())

	donorID := domain.DonorID(uuid.New())
	bankID := domain.BloodBankID(uuid.New())
	mockService.EXPECT().ListRecent(gomock.Any()).Return([]donationModel.DonationSummary{
		{
			Donation: donationModel.Donation{
				ID:          domain.DonationID(uuid.New()),
				DonorID:     donorID,
				BloodBankID: bankID,
				Units:       3,
				BloodType:   domain.BloodTypeBPos,
				Status:      donationModel.DonationStatusRecorded,
				CreatedAt:   time.Now().UTC(),
			},
			Donor:     donationModel.DonorSummary{ID: donorID, FullName: "Maya Okafor", BloodType: domain.BloodTypeBPos},
			BloodBank: donationModel.BankSummary{ID: bankID, Name: "Central Blood Bank", City: "Rotterdam"},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/blood-donation", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), float64(1), resp["count"])
	donations := resp["donations"].([]any)
	first := donations[0].(map[string]any)
	assert.Equal(s.T(), "Maya Okafor", first["donor"].(map[string]any)["fullName"])
}

func (s *DonationHandlerSuite) TestListDonationsEmpty() {
	router, mockService := newTestHandler(s.T())

	mockService.EXPECT().ListRecent(gomock.Any()).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/blood-donation", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), float64(0), resp["count"])
}

// assertionError is a plain error carrying store-level detail for the
// leakage test.
type assertionError string

func (e assertionError) Error() string { return string(e) }
