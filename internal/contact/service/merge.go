package service

import (
	"context"
	"fmt"

	"id-recon/internal/contact/models"
	"id-recon/internal/contact/ports"
)

type mergeResult struct {
	primary *models.Contact
	// members is the closure plus former dependents of demoted primaries.
	members   []*models.Contact
	demoted []int64
	// repointed counts moved contacts per demoted primary.
	repointed map[int64]int
}

// reconcile makes the oldest closure member the only primary and repoints
// every other member, and every former dependent of a demoted primary, at it.
func reconcile(ctx context.Context, store ports.ContactStore, closure []*models.Contact) (*mergeResult, error) {
	primary := models.SelectPrimary(closure)
	if primary == nil {
		return nil, fmt.Errorf("reconcile: empty closure")
	}
	demoted := models.DemotedPrimaries(primary, closure)

	members := append([]*models.Contact(nil), closure...)
	for _, id := range demoted {
		dependents, err := store.FindByLinkedID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load dependents of demoted primary %d: %w", id, err)
		}
		members = append(members, dependents...)
	}

	if !primary.IsPrimary() {
		if err := store.UpdateLinkage(ctx, primary.ID, models.PrecedencePrimary, nil); err != nil {
			return nil, fmt.Errorf("promote contact %d: %w", primary.ID, err)
		}
		promoted := *primary
		promoted.LinkPrecedence = models.PrecedencePrimary
		promoted.LinkedID = nil
		primary = &promoted
	}

	updates := models.PlanMerge(primary, members)
	for _, u := range updates {
		if err := store.UpdateLinkage(ctx, u.ContactID, u.Precedence, u.LinkedID); err != nil {
			return nil, fmt.Errorf("repoint contact %d: %w", u.ContactID, err)
		}
	}

	return &mergeResult{
		primary:   primary,
		members:   models.ApplyLinkUpdates(members, updates),
		demoted:   demoted,
		repointed: models.RepointedBy(members, updates),
	}, nil
}
