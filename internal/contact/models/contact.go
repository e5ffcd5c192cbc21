package models

import (
	"time"

	dErrors "id-recon/pkg/domain-errors"
)

// LinkPrecedence marks a contact as the canonical record of its identity or as
// one merged into it.
type LinkPrecedence string

const (
	PrecedencePrimary   LinkPrecedence = "primary"
	PrecedenceSecondary LinkPrecedence = "secondary"
)

// IsValid reports whether p is a known precedence.
func (p LinkPrecedence) IsValid() bool {
	return p == PrecedencePrimary || p == PrecedenceSecondary
}

// Contact is one observed (email, phone) pair. Empty strings mean the
// identifier was not supplied.
//
// Invariant: a primary has LinkedID == nil; a secondary has LinkedID set to the
// ID of its primary.
type Contact struct {
	ID             int64
	Email          string
	PhoneNumber    string
	LinkPrecedence LinkPrecedence
	LinkedID       *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPrimary reports whether the contact is the canonical record of its identity.
func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == PrecedencePrimary
}

// LinksTo reports whether the contact is a secondary of primaryID.
func (c *Contact) LinksTo(primaryID int64) bool {
	return c.LinkPrecedence == PrecedenceSecondary && c.LinkedID != nil && *c.LinkedID == primaryID
}

// Covers reports whether the contact already records every identifier the
// request supplies. Absent request fields match anything.
func (c *Contact) Covers(req IdentifyRequest) bool {
	if req.Email != "" && c.Email != req.Email {
		return false
	}
	if req.PhoneNumber != "" && c.PhoneNumber != req.PhoneNumber {
		return false
	}
	return true
}

// Before orders contacts by creation time, breaking ties on ID.
func (c *Contact) Before(other *Contact) bool {
	if !c.CreatedAt.Equal(other.CreatedAt) {
		return c.CreatedAt.Before(other.CreatedAt)
	}
	return c.ID < other.ID
}

// IdentifyRequest is one observation of a customer's identifiers.
type IdentifyRequest struct {
	Email       string
	PhoneNumber string
}

// Validate rejects observations that carry no identifier at all.
func (r IdentifyRequest) Validate() error {
	if r.Email == "" && r.PhoneNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "email or phoneNumber is required")
	}
	return nil
}

// Outcome classifies what a reconciliation did to the store.
type Outcome string

const (
	// OutcomeCreated: no known identity matched; a new primary was inserted.
	OutcomeCreated Outcome = "created"
	// OutcomeLinked: a new secondary was inserted under an existing primary.
	OutcomeLinked Outcome = "linked"
	// OutcomeMerged: two or more identities were folded under one primary.
	OutcomeMerged Outcome = "merged"
	// OutcomeMatched: the observation was already fully represented.
	OutcomeMatched Outcome = "matched"
)
