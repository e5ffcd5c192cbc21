package models

import (
	"sort"

	"id-recon/pkg/platform/strings"
)

// Consolidated is the single canonical view of one identity.
type Consolidated struct {
	PrimaryContactID    int64
	Emails              []string
	PhoneNumbers        []string
	SecondaryContactIDs []int64
}

// Consolidate projects the contacts of one identity into its consolidated view.
// The primary's identifiers come first; secondaries follow in ascending ID
// order. Contacts that are neither the primary nor linked to it are ignored.
func Consolidate(primaryID int64, contacts []*Contact) *Consolidated {
	var primary *Contact
	secondaries := make([]*Contact, 0, len(contacts))
	for _, c := range contacts {
		switch {
		case c.ID == primaryID:
			primary = c
		case c.LinksTo(primaryID):
			secondaries = append(secondaries, c)
		}
	}
	sort.Slice(secondaries, func(i, j int) bool { return secondaries[i].ID < secondaries[j].ID })

	emails := make([]string, 0, len(secondaries)+1)
	phones := make([]string, 0, len(secondaries)+1)
	if primary != nil {
		emails = append(emails, primary.Email)
		phones = append(phones, primary.PhoneNumber)
	}
	ids := make([]int64, 0, len(secondaries))
	for _, s := range secondaries {
		emails = append(emails, s.Email)
		phones = append(phones, s.PhoneNumber)
		ids = append(ids, s.ID)
	}

	return &Consolidated{
		PrimaryContactID:    primaryID,
		Emails:              strings.DedupeNonEmpty(emails),
		PhoneNumbers:        strings.DedupeNonEmpty(phones),
		SecondaryContactIDs: ids,
	}
}
