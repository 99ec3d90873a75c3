package service

import (
	"context"
	"time"

	"lifelink/internal/donation/models"
	"lifelink/internal/inventory"
	"lifelink/pkg/domain"
)

// Store is the transaction-scoped persistence surface the recorder mutates.
// Every method call issued to a Store obtained through StoreTx.RunInTx is part
// of the same atomic unit of work: either all of them commit or none do.
//
// Lookup methods return a CodeNotFound domain error when the id does not
// resolve.
type Store interface {
	FindDonor(ctx context.Context, id domain.DonorID) (*models.Donor, error)
	FindBloodBank(ctx context.Context, id domain.BloodBankID) (*models.BloodBank, error)
	InsertDonation(ctx context.Context, donation *models.Donation) error
	SetDonorLastDonated(ctx context.Context, id domain.DonorID, at time.Time) error

	inventory.Ledger
}

// StoreTx provides the transactional boundary for donation recording.
// Implementations wrap a database transaction or, in memory, a coarse lock
// with snapshot rollback. If fn returns an error, no effect of any Store call
// made inside fn may remain visible.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// ReadStore serves the non-transactional listing endpoint. It shares the
// Donation entity with the recording flow but none of its atomicity concerns.
type ReadStore interface {
	ListRecentDonations(ctx context.Context, limit int) ([]models.DonationSummary, error)
}
