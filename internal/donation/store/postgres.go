// Package store provides the PostgreSQL and in-memory persistence layers for
// the donation context.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifelink/internal/donation/models"
	"lifelink/internal/inventory"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// defaultMinUnits seeds min_units when an inventory row is created lazily on
// the first donation of a (bank, type) pair.
const defaultMinUnits = 10

// PostgresStore serves the non-transactional read side directly off the pool.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed read store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListRecentDonations returns the newest donations with donor and bank
// summaries joined in, newest first.
func (s *PostgresStore) ListRecentDonations(ctx context.Context, limit int) ([]models.DonationSummary, error) {
	query := `
		SELECT d.id, d.donor_id, d.blood_bank_id, d.units, d.blood_type, d.notes, d.status, d.created_at,
		       dn.full_name, dn.blood_type,
		       bb.name, bb.city
		FROM donations d
		JOIN donors dn ON dn.id = d.donor_id
		JOIN blood_banks bb ON bb.id = d.blood_bank_id
		ORDER BY d.created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent donations: %w", err)
	}
	defer rows.Close()

	var out []models.DonationSummary
	for rows.Next() {
		var (
			summary models.DonationSummary
			id      uuid.UUID
			donorID uuid.UUID
			bankID  uuid.UUID
			notes   sql.NullString
		)
		if err := rows.Scan(
			&id, &donorID, &bankID, &summary.Units, &summary.Donation.BloodType, &notes, &summary.Status, &summary.CreatedAt,
			&summary.Donor.FullName, &summary.Donor.BloodType,
			&summary.BloodBank.Name, &summary.BloodBank.City,
		); err != nil {
			return nil, fmt.Errorf("scan donation row: %w", err)
		}
		summary.ID = domain.DonationID(id)
		summary.DonorID = domain.DonorID(donorID)
		summary.BloodBankID = domain.BloodBankID(bankID)
		summary.Donor.ID = domain.DonorID(donorID)
		summary.BloodBank.ID = domain.BloodBankID(bankID)
		summary.Notes = notes.String
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donation rows: %w", err)
	}
	return out, nil
}

// Ping reports database reachability for health checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PostgresTx is the transaction-scoped store handed to the donation recorder.
// All statements run on the same *sql.Tx, so the store's transactional
// semantics provide the all-or-nothing guarantee.
type PostgresTx struct {
	tx *sql.Tx
}

// NewPostgresTx wraps an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresTx {
	return &PostgresTx{tx: tx}
}

// FindDonor resolves a donor by id within the transaction.
func (s *PostgresTx) FindDonor(ctx context.Context, id domain.DonorID) (*models.Donor, error) {
	var (
		donor       models.Donor
		lastDonated sql.NullTime
	)
	err := s.tx.QueryRowContext(ctx,
		`SELECT id, full_name, blood_type, last_donated FROM donors WHERE id = $1`,
		uuid.UUID(id),
	).Scan((*uuid.UUID)(&donor.ID), &donor.FullName, &donor.BloodType, &lastDonated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, fmt.Errorf("find donor: %w", err)
	}
	if lastDonated.Valid {
		donor.LastDonated = &lastDonated.Time
	}
	return &donor, nil
}

// FindBloodBank resolves a blood bank by id within the transaction.
func (s *PostgresTx) FindBloodBank(ctx context.Context, id domain.BloodBankID) (*models.BloodBank, error) {
	var bank models.BloodBank
	err := s.tx.QueryRowContext(ctx,
		`SELECT id, name, city FROM blood_banks WHERE id = $1`,
		uuid.UUID(id),
	).Scan((*uuid.UUID)(&bank.ID), &bank.Name, &bank.City)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood bank not found")
		}
		return nil, fmt.Errorf("find blood bank: %w", err)
	}
	return &bank, nil
}

// InsertDonation persists a new donation row.
func (s *PostgresTx) InsertDonation(ctx context.Context, donation *models.Donation) error {
	var notes sql.NullString
	if donation.Notes != "" {
		notes = sql.NullString{String: donation.Notes, Valid: true}
	}
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO donations (id, donor_id, blood_bank_id, units, blood_type, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(donation.ID),
		uuid.UUID(donation.DonorID),
		uuid.UUID(donation.BloodBankID),
		donation.Units,
		donation.BloodType.String(),
		notes,
		string(donation.Status),
		donation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// ApplyIncrement creates or increments the inventory counter for one
// (bank, blood type) pair as a single atomic upsert. The delta is applied by
// the database relative to the current stored value, so concurrent increments
// to the same row serialize on the row lock and none is ever lost.
func (s *PostgresTx) ApplyIncrement(ctx context.Context, bankID domain.BloodBankID, bloodType domain.BloodType, delta int) (*inventory.Snapshot, error) {
	snapshot := inventory.Snapshot{
		BloodBankID: bankID,
		BloodType:   bloodType,
	}
	err := s.tx.QueryRowContext(ctx, `
		INSERT INTO blood_inventory (blood_bank_id, blood_type, units, min_units)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (blood_bank_id, blood_type)
		DO UPDATE SET units = blood_inventory.units + EXCLUDED.units
		RETURNING units, min_units
	`,
		uuid.UUID(bankID),
		bloodType.String(),
		delta,
		defaultMinUnits,
	).Scan(&snapshot.Units, &snapshot.MinUnits)
	if err != nil {
		return nil, fmt.Errorf("apply inventory increment: %w", err)
	}
	return &snapshot, nil
}

// SetDonorLastDonated stamps the donor's most recent donation time.
func (s *PostgresTx) SetDonorLastDonated(ctx context.Context, id domain.DonorID, at time.Time) error {
	res, err := s.tx.ExecContext(ctx,
		`UPDATE donors SET last_donated = $2 WHERE id = $1`,
		uuid.UUID(id), at,
	)
	if err != nil {
		return fmt.Errorf("update donor last_donated: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donor last_donated: %w", err)
	}
	if affected == 0 {
		// The donor was resolved earlier in this same transaction, so a miss
		// here means the row vanished underneath us.
		return dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	return nil
}
