// Package models defines the donation bounded context's entities and the
// wire shapes accepted by its HTTP surface.
package models

import (
	"time"

	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// DonationStatus tags a donation record. The recording flow writes a single
// terminal status; there is no retry or fulfillment state machine.
type DonationStatus string

// DonationStatusRecorded is the only status this service ever writes.
const DonationStatusRecorded DonationStatus = "recorded"

// Donor is a registered person with a fixed blood type. The recording flow
// reads the blood type and writes LastDonated; profile edits happen elsewhere.
type Donor struct {
	ID          domain.DonorID
	FullName    string
	BloodType   domain.BloodType
	LastDonated *time.Time
}

// BloodBank is a facility holding per-blood-type inventory. Name and city are
// informational to this context.
type BloodBank struct {
	ID   domain.BloodBankID
	Name string
	City string
}

// Donation is an immutable record of one donor contributing units to one bank.
// Its BloodType always equals the referenced donor's blood type at creation
// time; nothing re-checks this afterwards, so creation is the only gate.
type Donation struct {
	ID          domain.DonationID  `json:"id"`
	DonorID     domain.DonorID     `json:"donorId"`
	BloodBankID domain.BloodBankID `json:"bloodBankId"`
	Units       int                `json:"units"`
	BloodType   domain.BloodType   `json:"bloodType"`
	Notes       string             `json:"notes,omitempty"`
	Status      DonationStatus     `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// DonorSummary and BankSummary are the denormalized attachments returned by
// the read-only listing endpoint.
type DonorSummary struct {
	ID        domain.DonorID   `json:"id"`
	FullName  string           `json:"fullName"`
	BloodType domain.BloodType `json:"bloodType"`
}

type BankSummary struct {
	ID   domain.BloodBankID `json:"id"`
	Name string             `json:"name"`
	City string             `json:"city"`
}

// DonationSummary is one row of the recent-donations listing.
type DonationSummary struct {
	Donation
	Donor     DonorSummary `json:"donor"`
	BloodBank BankSummary  `json:"bloodBank"`
}

// RecordDonationRequest is the untrusted body of POST /blood-donation.
type RecordDonationRequest struct {
	DonorID     string `json:"donorId"`
	BloodBankID string `json:"bloodBankId"`
	Units       int    `json:"units"`
	BloodType   string `json:"bloodType"`
	Notes       string `json:"notes,omitempty"`
}

// RecordDonation is the fully validated form of a recording request. All
// field checks happen here, before any transaction opens, so a rejected
// request can never leave partial state.
type RecordDonation struct {
	DonorID     domain.DonorID
	BloodBankID domain.BloodBankID
	Units       int
	BloodType   domain.BloodType
	Notes       string
}

// Validate narrows the wire shape into a RecordDonation.
func (r RecordDonationRequest) Validate() (RecordDonation, error) {
	var cmd RecordDonation

	donorID, err := domain.ParseDonorID(r.DonorID)
	if err != nil {
		return cmd, err
	}
	bankID, err := domain.ParseBloodBankID(r.BloodBankID)
	if err != nil {
		return cmd, err
	}
	if r.Units <= 0 {
		return cmd, dErrors.New(dErrors.CodeBadRequest, "units must be a positive number")
	}
	bloodType, err := domain.ParseBloodType(r.BloodType)
	if err != nil {
		return cmd, err
	}

	cmd = RecordDonation{
		DonorID:     donorID,
		BloodBankID: bankID,
		Units:       r.Units,
		BloodType:   bloodType,
		Notes:       r.Notes,
	}
	return cmd, nil
}
