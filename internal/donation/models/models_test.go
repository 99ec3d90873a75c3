package models_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelink/internal/donation/models"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/testutil"
)

func validRequest() models.RecordDonationRequest {
	return models.RecordDonationRequest{
		DonorID:     uuid.NewString(),
		BloodBankID: uuid.NewString(),
		Units:       2,
		BloodType:   "O-",
		Notes:       "first visit",
	}
}

func TestRecordDonationRequestValidate(t *testing.T) {
	testutil.Given(t, "a fully populated request", func(t *testing.T) {
		req := validRequest()
		cmd, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, 2, cmd.Units)
		assert.Equal(t, domain.BloodTypeONeg, cmd.BloodType)
		assert.Equal(t, "first visit", cmd.Notes)
		assert.Equal(t, req.DonorID, cmd.DonorID.String())
		assert.Equal(t, req.BloodBankID, cmd.BloodBankID.String())
	})

	testutil.Given(t, "a request with notes omitted", func(t *testing.T) {
		req := validRequest()
		req.Notes = ""
		_, err := req.Validate()
		assert.NoError(t, err)
	})

	testutil.When(t, "a required field is missing or malformed", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*models.RecordDonationRequest)
			code   dErrors.Code
		}{
			{"empty donor id", func(r *models.RecordDonationRequest) { r.DonorID = "" }, dErrors.CodeInvalidInput},
			{"garbage donor id", func(r *models.RecordDonationRequest) { r.DonorID = "abc" }, dErrors.CodeInvalidInput},
			{"empty bank id", func(r *models.RecordDonationRequest) { r.BloodBankID = "" }, dErrors.CodeInvalidInput},
			{"zero units", func(r *models.RecordDonationRequest) { r.Units = 0 }, dErrors.CodeBadRequest},
			{"negative units", func(r *models.RecordDonationRequest) { r.Units = -1 }, dErrors.CodeBadRequest},
			{"empty blood type", func(r *models.RecordDonationRequest) { r.BloodType = "" }, dErrors.CodeInvalidInput},
			{"unknown blood type", func(r *models.RecordDonationRequest) { r.BloodType = "C-" }, dErrors.CodeInvalidInput},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				req := validRequest()
				tc.mutate(&req)
				_, err := req.Validate()
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, tc.code), "want %s, got %v", tc.code, err)
			})
		}
	})
}
