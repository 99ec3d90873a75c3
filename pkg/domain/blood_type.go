package domain

import (
	dErrors "lifelink/pkg/domain-errors"
)

// BloodType is one of the eight ABO/Rh groups. Values are stored verbatim in
// the database and on the wire, so the canonical form is the display form.
type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

var validBloodTypes = map[BloodType]bool{
	BloodTypeAPos:  true,
	BloodTypeANeg:  true,
	BloodTypeBPos:  true,
	BloodTypeBNeg:  true,
	BloodTypeABPos: true,
	BloodTypeABNeg: true,
	BloodTypeOPos:  true,
	BloodTypeONeg:  true,
}

// ParseBloodType validates a caller-supplied blood type at the trust boundary.
func ParseBloodType(raw string) (BloodType, error) {
	bt := BloodType(raw)
	if !validBloodTypes[bt] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid blood type %q", raw)
	}
	return bt, nil
}

func (b BloodType) String() string {
	return string(b)
}
