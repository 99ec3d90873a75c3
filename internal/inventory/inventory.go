// Package inventory models the per-(blood bank, blood type) stock ledger.
// Exactly one row exists per composite key; rows are created lazily on the
// first donation of a given pair and only ever incremented afterwards.
package inventory

import (
	"context"

	"lifelink/pkg/domain"
)

// Snapshot is the post-increment state of one ledger row.
type Snapshot struct {
	BloodBankID domain.BloodBankID `json:"bloodBankId"`
	BloodType   domain.BloodType   `json:"bloodType"`
	Units       int                `json:"units"`
	MinUnits    int                `json:"minUnits"`
}

// BelowThreshold reports whether stock has fallen below the configured floor.
// Informational only; nothing in the donation flow branches on it.
func (s Snapshot) BelowThreshold() bool {
	return s.Units < s.MinUnits
}

// Ledger applies unit increments to the stock counter for one
// (bank, blood type) pair. Implementations must express the increment as a
// single atomic create-or-increment against the store: two concurrent
// increments to the same pair must both survive, in any serialization order.
// A read-modify-write issued as separate statements is not a valid
// implementation.
type Ledger interface {
	ApplyIncrement(ctx context.Context, bankID domain.BloodBankID, bloodType domain.BloodType, delta int) (*Snapshot, error)
}
