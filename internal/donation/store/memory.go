package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifelink/internal/donation/models"
	"lifelink/internal/donation/service"
	"lifelink/internal/inventory"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

type inventoryKey struct {
	bankID    domain.BloodBankID
	bloodType domain.BloodType
}

// InMemoryStore keeps the donation context testable without PostgreSQL. It
// intentionally favors clarity over performance.
type InMemoryStore struct {
	mu        sync.RWMutex
	donors    map[domain.DonorID]models.Donor
	banks     map[domain.BloodBankID]models.BloodBank
	inventory map[inventoryKey]inventory.Snapshot
	donations map[domain.DonationID]models.Donation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		donors:    make(map[domain.DonorID]models.Donor),
		banks:     make(map[domain.BloodBankID]models.BloodBank),
		inventory: make(map[inventoryKey]inventory.Snapshot),
		donations: make(map[domain.DonationID]models.Donation),
	}
}

// AddDonor seeds a donor record.
func (s *InMemoryStore) AddDonor(donor models.Donor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[donor.ID] = donor
}

// AddBloodBank seeds a blood bank record.
func (s *InMemoryStore) AddBloodBank(bank models.BloodBank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[bank.ID] = bank
}

func (s *InMemoryStore) FindDonor(_ context.Context, id domain.DonorID) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donor, ok := s.donors[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	return &donor, nil
}

func (s *InMemoryStore) FindBloodBank(_ context.Context, id domain.BloodBankID) (*models.BloodBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bank, ok := s.banks[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "blood bank not found")
	}
	return &bank, nil
}

func (s *InMemoryStore) InsertDonation(_ context.Context, donation *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.donations[donation.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "donation id already exists")
	}
	s.donations[donation.ID] = *donation
	return nil
}

func (s *InMemoryStore) ApplyIncrement(_ context.Context, bankID domain.BloodBankID, bloodType domain.BloodType, delta int) (*inventory.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := inventoryKey{bankID: bankID, bloodType: bloodType}
	snap, ok := s.inventory[key]
	if !ok {
		snap = inventory.Snapshot{
			BloodBankID: bankID,
			BloodType:   bloodType,
			Units:       delta,
			MinUnits:    defaultMinUnits,
		}
	} else {
		snap.Units += delta
	}
	s.inventory[key] = snap
	return &snap, nil
}

func (s *InMemoryStore) SetDonorLastDonated(_ context.Context, id domain.DonorID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	donor, ok := s.donors[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	donor.LastDonated = &at
	s.donors[id] = donor
	return nil
}

func (s *InMemoryStore) ListRecentDonations(_ context.Context, limit int) ([]models.DonationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	donations := make([]models.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		donations = append(donations, d)
	}
	sort.Slice(donations, func(i, j int) bool {
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	})
	if len(donations) > limit {
		donations = donations[:limit]
	}

	out := make([]models.DonationSummary, 0, len(donations))
	for _, d := range donations {
		summary := models.DonationSummary{Donation: d}
		if donor, ok := s.donors[d.DonorID]; ok {
			summary.Donor = models.DonorSummary{ID: donor.ID, FullName: donor.FullName, BloodType: donor.BloodType}
		}
		if bank, ok := s.banks[d.BloodBankID]; ok {
			summary.BloodBank = models.BankSummary{ID: bank.ID, Name: bank.Name, City: bank.City}
		}
		out = append(out, summary)
	}
	return out, nil
}

// GetDonor returns the current donor state for test assertions.
func (s *InMemoryStore) GetDonor(id domain.DonorID) (models.Donor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donor, ok := s.donors[id]
	return donor, ok
}

// GetInventory returns the current ledger row for test assertions.
func (s *InMemoryStore) GetInventory(bankID domain.BloodBankID, bloodType domain.BloodType) (inventory.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.inventory[inventoryKey{bankID: bankID, bloodType: bloodType}]
	return snap, ok
}

// DonationCount returns the number of stored donation rows.
func (s *InMemoryStore) DonationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.donations)
}

type memorySnapshot struct {
	donors    map[domain.DonorID]models.Donor
	banks     map[domain.BloodBankID]models.BloodBank
	inventory map[inventoryKey]inventory.Snapshot
	donations map[domain.DonationID]models.Donation
}

func (s *InMemoryStore) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{
		donors:    make(map[domain.DonorID]models.Donor, len(s.donors)),
		banks:     make(map[domain.BloodBankID]models.BloodBank, len(s.banks)),
		inventory: make(map[inventoryKey]inventory.Snapshot, len(s.inventory)),
		donations: make(map[domain.DonationID]models.Donation, len(s.donations)),
	}
	for k, v := range s.donors {
		snap.donors[k] = v
	}
	for k, v := range s.banks {
		snap.banks[k] = v
	}
	for k, v := range s.inventory {
		snap.inventory[k] = v
	}
	for k, v := range s.donations {
		snap.donations[k] = v
	}
	return snap
}

func (s *InMemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors = snap.donors
	s.banks = snap.banks
	s.inventory = snap.inventory
	s.donations = snap.donations
}

// MemoryTx provides the transactional boundary over an InMemoryStore: a
// coarse lock serializes transactions, and a pre-transaction snapshot is
// restored when fn fails, so a failed transaction leaves state byte-identical
// to before it started.
type MemoryTx struct {
	mu    sync.Mutex
	store *InMemoryStore
	wrap  func(service.Store) service.Store
}

// MemoryTxOption configures a MemoryTx.
type MemoryTxOption func(*MemoryTx)

// WithStoreWrapper decorates the store handed to each transaction body. Tests
// use it to inject failures at individual steps.
func WithStoreWrapper(wrap func(service.Store) service.Store) MemoryTxOption {
	return func(t *MemoryTx) { t.wrap = wrap }
}

// NewMemoryTx constructs the in-memory transaction runner.
func NewMemoryTx(store *InMemoryStore, opts ...MemoryTxOption) *MemoryTx {
	t := &MemoryTx{store: store}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.snapshot()
	var s service.Store = t.store
	if t.wrap != nil {
		s = t.wrap(s)
	}
	if err := fn(s); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
