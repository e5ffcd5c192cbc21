package handler

import "id-recon/internal/contact/models"

// IdentifyResponse is the POST /identify success body. The CLI prints the same
// document.
type IdentifyResponse struct {
	Contact ContactView `json:"contact"`
}

type ContactView struct {
	PrimaryContactID    int64    `json:"primaryContactId"`
	Emails              []string `json:"emails"`
	PhoneNumbers        []string `json:"phoneNumbers"`
	SecondaryContactIDs []int64  `json:"secondaryContactIds"`
}

// ToIdentifyResponse projects a consolidated identity into the response body.
// Empty lists render as [] rather than null.
func ToIdentifyResponse(c *models.Consolidated) *IdentifyResponse {
	view := ContactView{
		PrimaryContactID:    c.PrimaryContactID,
		Emails:              c.Emails,
		PhoneNumbers:        c.PhoneNumbers,
		SecondaryContactIDs: c.SecondaryContactIDs,
	}
	if view.Emails == nil {
		view.Emails = []string{}
	}
	if view.PhoneNumbers == nil {
		view.PhoneNumbers = []string{}
	}
	if view.SecondaryContactIDs == nil {
		view.SecondaryContactIDs = []int64{}
	}
	return &IdentifyResponse{Contact: view}
}
