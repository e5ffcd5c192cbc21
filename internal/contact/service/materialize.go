package service

import (
	"context"
	"fmt"

	"id-recon/internal/contact/models"
	"id-recon/internal/contact/ports"
)

// ensureRepresented inserts a secondary under primary unless some member
// already covers the request. It returns the inserted contact or nil.
func ensureRepresented(ctx context.Context, store ports.ContactStore, members []*models.Contact, req models.IdentifyRequest, primary *models.Contact) (*models.Contact, error) {
	for _, c := range members {
		if c.Covers(req) {
			return nil, nil
		}
	}
	linked := primary.ID
	inserted, err := store.Insert(ctx, req.Email, req.PhoneNumber, models.PrecedenceSecondary, &linked)
	if err != nil {
		return nil, fmt.Errorf("insert secondary: %w", err)
	}
	return inserted, nil
}

// startIdentity inserts the first contact of a new identity.
func startIdentity(ctx context.Context, store ports.ContactStore, req models.IdentifyRequest) (*models.Contact, error) {
	c, err := store.Insert(ctx, req.Email, req.PhoneNumber, models.PrecedencePrimary, nil)
	if err != nil {
		return nil, fmt.Errorf("insert primary: %w", err)
	}
	return c, nil
}
