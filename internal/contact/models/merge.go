package models

import "sort"

// LinkUpdate repoints one contact under a primary.
type LinkUpdate struct {
	ContactID  int64
	Precedence LinkPrecedence
	LinkedID   *int64
	// WasPrimary is set when the update demotes a former primary.
	WasPrimary bool
}

// SelectPrimary returns the oldest contact (earliest CreatedAt, then smallest
// ID), or nil when contacts is empty. The current precedence of the candidates
// does not matter: a closure may hold zero, one, or several primaries.
func SelectPrimary(contacts []*Contact) *Contact {
	var oldest *Contact
	for _, c := range contacts {
		if oldest == nil || c.Before(oldest) {
			oldest = c
		}
	}
	return oldest
}

// DemotedPrimaries lists the IDs of primaries in members other than primary,
// in ascending order. Their former dependents must be repointed too.
func DemotedPrimaries(primary *Contact, members []*Contact) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, c := range members {
		if c.ID == primary.ID || !c.IsPrimary() {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PlanMerge computes the updates that leave every member a direct secondary of
// primary. Members already linked to primary produce no update; primary itself
// and duplicate entries are ignored. Updates are ordered by contact ID so that
// concurrent transactions touch rows in the same order.
//
// PlanMerge is pure: applying the returned updates to members yields a set in
// which no secondary points at another secondary.
func PlanMerge(primary *Contact, members []*Contact) []LinkUpdate {
	target := primary.ID
	seen := map[int64]struct{}{target: {}}
	var updates []LinkUpdate

	for _, c := range members {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		if c.LinksTo(target) {
			continue
		}
		linked := target
		updates = append(updates, LinkUpdate{
			ContactID:  c.ID,
			Precedence: PrecedenceSecondary,
			LinkedID:   &linked,
			WasPrimary: c.IsPrimary(),
		})
	}

	sort.Slice(updates, func(i, j int) bool { return updates[i].ContactID < updates[j].ContactID })
	return updates
}

// RepointedBy attributes each update to the former primary it moves: a
// demoted primary counts itself, a secondary counts toward the primary it was
// linked to. members must hold the contacts as they were before updates.
func RepointedBy(members []*Contact, updates []LinkUpdate) map[int64]int {
	before := make(map[int64]*Contact, len(members))
	for _, c := range members {
		if _, ok := before[c.ID]; !ok {
			before[c.ID] = c
		}
	}
	counts := make(map[int64]int)
	for _, u := range updates {
		c, ok := before[u.ContactID]
		switch {
		case !ok:
		case c.IsPrimary():
			counts[c.ID]++
		case c.LinkedID != nil:
			counts[*c.LinkedID]++
		}
	}
	return counts
}

// ApplyLinkUpdates returns copies of contacts with updates applied. Contacts
// without an update are copied unchanged.
func ApplyLinkUpdates(contacts []*Contact, updates []LinkUpdate) []*Contact {
	byID := make(map[int64]LinkUpdate, len(updates))
	for _, u := range updates {
		byID[u.ContactID] = u
	}

	out := make([]*Contact, 0, len(contacts))
	for _, c := range contacts {
		cp := *c
		if u, ok := byID[c.ID]; ok {
			cp.LinkPrecedence = u.Precedence
			cp.LinkedID = u.LinkedID
		}
		out = append(out, &cp)
	}
	return out
}

// SortByCreation orders contacts oldest first, in place.
func SortByCreation(contacts []*Contact) {
	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].Before(contacts[j]) })
}
