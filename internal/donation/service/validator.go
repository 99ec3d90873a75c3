package service

import (
	"context"

	"lifelink/internal/donation/models"
	dErrors "lifelink/pkg/domain-errors"
)

// EntityValidator resolves the entities referenced by a recording request and
// enforces the cross-entity blood-type invariant. It issues reads only; all
// three checks complete before the recorder performs any mutation, so a
// failed validation never leaves partial state behind.
type EntityValidator struct{}

// Resolve looks up the donor and blood bank inside the active transaction and
// verifies the caller-declared blood type against the donor's recorded one.
func (EntityValidator) Resolve(ctx context.Context, store Store, cmd models.RecordDonation) (*models.Donor, *models.BloodBank, error) {
	donor, err := store.FindDonor(ctx, cmd.DonorID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "Donor with ID %s not found", cmd.DonorID)
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve donor")
	}

	bank, err := store.FindBloodBank(ctx, cmd.BloodBankID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "Blood Bank with ID %s not found", cmd.BloodBankID)
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve blood bank")
	}

	if donor.BloodType != cmd.BloodType {
		return nil, nil, dErrors.Newf(dErrors.CodeTypeMismatch,
			"Blood type mismatch: donor is %s but request declared %s", donor.BloodType, cmd.BloodType)
	}

	return donor, bank, nil
}
