// Package domain holds the identifier and value types shared by every
// bounded context. Distinct UUID wrappers keep a DonorID from ever being
// passed where a BloodBankID is expected; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "lifelink/pkg/domain-errors"
)

type (
	DonorID     uuid.UUID
	BloodBankID uuid.UUID
	DonationID  uuid.UUID
)

func (id DonorID) String() string     { return uuid.UUID(id).String() }
func (id BloodBankID) String() string { return uuid.UUID(id).String() }
func (id DonationID) String() string  { return uuid.UUID(id).String() }

func (id DonorID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id BloodBankID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// The wrappers marshal as canonical UUID strings, not as raw byte arrays.
func (id DonorID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id BloodBankID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id DonationID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *DonorID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BloodBankID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DonationID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewDonationID generates a fresh donation identifier.
func NewDonationID() DonationID {
	return DonationID(uuid.New())
}

// ParseDonorID parses and validates a donor id from untrusted input.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseDonorID(raw string) (DonorID, error) {
	u, err := parseUUID(raw, "donor id")
	if err != nil {
		return DonorID(uuid.Nil), err
	}
	return DonorID(u), nil
}

// ParseBloodBankID parses and validates a blood bank id from untrusted input.
func ParseBloodBankID(raw string) (BloodBankID, error) {
	u, err := parseUUID(raw, "blood bank id")
	if err != nil {
		return BloodBankID(uuid.Nil), err
	}
	return BloodBankID(u), nil
}

// ParseDonationID parses and validates a donation id from untrusted input.
func ParseDonationID(raw string) (DonationID, error) {
	u, err := parseUUID(raw, "donation id")
	if err != nil {
		return DonationID(uuid.Nil), err
	}
	return DonationID(u), nil
}

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", kind)
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", kind)
	}
	return u, nil
}
