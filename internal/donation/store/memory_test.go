package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelink/internal/donation/models"
	"lifelink/internal/donation/service"
	"lifelink/internal/donation/store"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

func seedStore(t *testing.T) (*store.InMemoryStore, models.Donor, models.BloodBank) {
	t.Helper()
	mem := store.NewInMemoryStore()
	donor := models.Donor{
		ID:        domain.DonorID(uuid.New()),
		FullName:  "Jonas Lindqvist",
		BloodType: domain.BloodTypeABNeg,
	}
	bank := models.BloodBank{
		ID:   domain.BloodBankID(uuid.New()),
		Name: "North Bank",
		City: "Oslo",
	}
	mem.AddDonor(donor)
	mem.AddBloodBank(bank)
	return mem, donor, bank
}

func TestInMemoryStoreLookups(t *testing.T) {
	ctx := context.Background()
	mem, donor, bank := seedStore(t)

	t.Run("finds seeded donor", func(t *testing.T) {
		got, err := mem.FindDonor(ctx, donor.ID)
		require.NoError(t, err)
		assert.Equal(t, donor.FullName, got.FullName)
	})

	t.Run("missing donor returns not found", func(t *testing.T) {
		_, err := mem.FindDonor(ctx, domain.DonorID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("missing bank returns not found", func(t *testing.T) {
		_, err := mem.FindBloodBank(ctx, domain.BloodBankID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("finds seeded bank", func(t *testing.T) {
		got, err := mem.FindBloodBank(ctx, bank.ID)
		require.NoError(t, err)
		assert.Equal(t, "North Bank", got.Name)
	})
}

func TestApplyIncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	mem, _, bank := seedStore(t)

	const goroutines = 64
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mem.ApplyIncrement(ctx, bank.ID, domain.BloodTypeABNeg, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, ok := mem.GetInventory(bank.ID, domain.BloodTypeABNeg)
	require.True(t, ok)
	assert.Equal(t, goroutines, snap.Units)
}

func TestMemoryTxRollback(t *testing.T) {
	ctx := context.Background()
	mem, donor, bank := seedStore(t)
	tx := store.NewMemoryTx(mem)

	injected := errors.New("boom")
	err := tx.RunInTx(ctx, func(s service.Store) error {
		donation := models.Donation{
			ID:          domain.NewDonationID(),
			DonorID:     donor.ID,
			BloodBankID: bank.ID,
			Units:       4,
			BloodType:   donor.BloodType,
			Status:      models.DonationStatusRecorded,
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, s.InsertDonation(ctx, &donation))
		_, incErr := s.ApplyIncrement(ctx, bank.ID, donor.BloodType, 4)
		require.NoError(t, incErr)
		require.NoError(t, s.SetDonorLastDonated(ctx, donor.ID, donation.CreatedAt))
		return injected
	})
	require.ErrorIs(t, err, injected)

	// Every mutation made inside the failed transaction is gone.
	assert.Equal(t, 0, mem.DonationCount())
	_, ok := mem.GetInventory(bank.ID, donor.BloodType)
	assert.False(t, ok)
	got, ok := mem.GetDonor(donor.ID)
	require.True(t, ok)
	assert.Nil(t, got.LastDonated)
}

func TestMemoryTxCommit(t *testing.T) {
	ctx := context.Background()
	mem, donor, bank := seedStore(t)
	tx := store.NewMemoryTx(mem)

	err := tx.RunInTx(ctx, func(s service.Store) error {
		_, err := s.ApplyIncrement(ctx, bank.ID, donor.BloodType, 4)
		return err
	})
	require.NoError(t, err)

	snap, ok := mem.GetInventory(bank.ID, donor.BloodType)
	require.True(t, ok)
	assert.Equal(t, 4, snap.Units)
}

func TestMemoryTxCancelledContext(t *testing.T) {
	mem, _, _ := seedStore(t)
	tx := store.NewMemoryTx(mem)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tx.RunInTx(ctx, func(service.Store) error { return nil })
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestListRecentDonationsOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	mem, donor, bank := seedStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		donation := models.Donation{
			ID:          domain.NewDonationID(),
			DonorID:     donor.ID,
			BloodBankID: bank.ID,
			Units:       i + 1,
			BloodType:   donor.BloodType,
			Status:      models.DonationStatusRecorded,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, mem.InsertDonation(ctx, &donation))
	}

	got, err := mem.ListRecentDonations(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first.
	assert.Equal(t, 5, got[0].Units)
	assert.Equal(t, 4, got[1].Units)
	assert.Equal(t, 3, got[2].Units)
	assert.Equal(t, "North Bank", got[0].BloodBank.Name)
	assert.Equal(t, donor.FullName, got[0].Donor.FullName)
}
