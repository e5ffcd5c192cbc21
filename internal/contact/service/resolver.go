package service

import (
	"context"
	"fmt"
	"sort"

	"id-recon/internal/contact/models"
	"id-recon/internal/contact/ports"
)

// resolveClosure returns every contact transitively connected to the supplied
// identifiers, oldest first. The seed is the set of contacts sharing email or
// phone. Each round visits the queued contacts' dependents, then loads the
// primaries of visited secondaries that the walk has not reached yet in one
// batch. An empty result means the identity is unknown.
func resolveClosure(ctx context.Context, store ports.ContactStore, email, phone string) ([]*models.Contact, error) {
	seed, err := store.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("resolve seed: %w", err)
	}

	visited := make(map[int64]*models.Contact, len(seed))
	var queue []*models.Contact
	enqueue := func(contacts []*models.Contact) {
		for _, c := range contacts {
			if _, ok := visited[c.ID]; ok {
				continue
			}
			visited[c.ID] = c
			queue = append(queue, c)
		}
	}
	enqueue(seed)

	for len(queue) > 0 {
		missing := make(map[int64]struct{})
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]

			dependents, err := store.FindByLinkedID(ctx, c.ID)
			if err != nil {
				return nil, fmt.Errorf("resolve dependents of %d: %w", c.ID, err)
			}
			enqueue(dependents)

			if !c.IsPrimary() && c.LinkedID != nil {
				missing[*c.LinkedID] = struct{}{}
			}
		}

		ids := make([]int64, 0, len(missing))
		for id := range missing {
			if _, ok := visited[id]; !ok {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			break
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		parents, err := store.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve primaries %v: %w", ids, err)
		}
		enqueue(parents)
	}

	closure := make([]*models.Contact, 0, len(visited))
	for _, c := range visited {
		closure = append(closure, c)
	}
	models.SortByCreation(closure)
	return closure, nil
}
