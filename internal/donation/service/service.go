// Package service implements the donation recorder: the one place in the
// system where correctness depends on ordering, atomicity, and concurrent-safe
// inventory accumulation rather than on simple field validation.
package service

import (
	"context"
	"log/slog"
	"time"

	"lifelink/internal/donation/metrics"
	"lifelink/internal/donation/models"
	"lifelink/internal/inventory"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// recentDonationsLimit caps the read-only listing endpoint.
const recentDonationsLimit = 50

// CacheInvalidator signals the external read-side cache that donation and
// entity list caches are stale. Invalidation is fire-and-forget: it runs
// after commit and a failure is a staleness window, not a correctness bug.
type CacheInvalidator interface {
	InvalidateDonationLists(ctx context.Context) error
}

// EventPublisher emits a donation-recorded event after commit, also
// fire-and-forget.
type EventPublisher interface {
	DonationRecorded(ctx context.Context, donation models.Donation) error
}

// RecordResult is returned on a successful recording: the created donation
// plus the post-increment inventory snapshot for the affected (bank, type)
// pair, so callers can display updated stock without a second round trip.
type RecordResult struct {
	Donation  models.Donation
	Inventory inventory.Snapshot
}

// Service sequences validation, donation insertion, the ledger increment, and
// the donor timestamp update inside a single StoreTx boundary.
type Service struct {
	tx          StoreTx
	reads       ReadStore
	validator   EntityValidator
	invalidator CacheInvalidator
	events      EventPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	clock       func() time.Time
}

// Option configures optional collaborators on a Service.
type Option func(*Service)

// WithCacheInvalidator attaches a read-side cache invalidator.
func WithCacheInvalidator(inv CacheInvalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithEventPublisher attaches a post-commit event publisher.
func WithEventPublisher(pub EventPublisher) Option {
	return func(s *Service) { s.events = pub }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a donation Service.
func New(tx StoreTx, reads ReadStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		reads:  reads,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record durably records a donation. The algorithm runs entirely inside one
// atomic transaction:
//
//  1. resolve donor, resolve blood bank, check the declared blood type
//  2. insert the donation row with the fixed "recorded" status
//  3. apply the inventory increment for (bank, donor blood type)
//  4. set donor.last_donated
//
// Any error on any step aborts the transaction with zero partial effects.
// Cache invalidation and event emission happen after commit and are outside
// the atomicity guarantee.
func (s *Service) Record(ctx context.Context, req models.RecordDonationRequest) (*RecordResult, error) {
	cmd, err := req.Validate()
	if err != nil {
		return nil, err
	}

	start := s.clock()
	var result RecordResult
	err = s.tx.RunInTx(ctx, func(store Store) error {
		donor, _, err := s.validator.Resolve(ctx, store, cmd)
		if err != nil {
			return err
		}

		now := s.clock().UTC()
		donation := models.Donation{
			ID:          domain.NewDonationID(),
			DonorID:     donor.ID,
			BloodBankID: cmd.BloodBankID,
			Units:       cmd.Units,
			BloodType:   donor.BloodType,
			Notes:       cmd.Notes,
			Status:      models.DonationStatusRecorded,
			CreatedAt:   now,
		}
		if err := store.InsertDonation(ctx, &donation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to insert donation")
		}

		snapshot, err := store.ApplyIncrement(ctx, cmd.BloodBankID, donor.BloodType, cmd.Units)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update inventory")
		}

		if err := store.SetDonorLastDonated(ctx, donor.ID, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donor")
		}

		result = RecordResult{Donation: donation, Inventory: *snapshot}
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementDonationFailures()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementDonationsRecorded()
		s.metrics.AddUnitsDonated(result.Donation.Units)
		s.metrics.ObserveRecordDuration(s.clock().Sub(start))
	}
	s.afterCommit(ctx, result.Donation)

	return &result, nil
}

// afterCommit runs the fire-and-forget side effects. The request context may
// already be near its deadline, so side effects get their own detached one;
// a crash here leaves caches stale at worst, never the ledger wrong.
func (s *Service) afterCommit(ctx context.Context, donation models.Donation) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateDonationLists(ctx); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed",
				"donation_id", donation.ID.String(),
				"error", err.Error(),
			)
		}
	}
	if s.events != nil {
		if err := s.events.DonationRecorded(ctx, donation); err != nil {
			s.logger.WarnContext(ctx, "donation event emission failed",
				"donation_id", donation.ID.String(),
				"error", err.Error(),
			)
		}
	}
}

// ListRecent returns the most recent donations with donor and bank summaries
// attached. Not part of the transactional core.
func (s *Service) ListRecent(ctx context.Context) ([]models.DonationSummary, error) {
	donations, err := s.reads.ListRecentDonations(ctx, recentDonationsLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return donations, nil
}
