package models

import (
	"fmt"
	"sort"
)

// Violation is a broken linkage invariant found by VerifyLinkage.
type Violation struct {
	ContactID int64
	Reason    string
}

func (v Violation) String() string {
	return fmt.Sprintf("contact %d: %s", v.ContactID, v.Reason)
}

// VerifyLinkage checks a full set of contacts against the linkage invariants:
// link shape (primary has no link, secondary points at a primary), exactly one
// primary per connected component and it is the oldest member, and no repeated
// (email, phone) pair. Components are formed by shared non-empty email, shared
// non-empty phone and link edges.
func VerifyLinkage(contacts []*Contact) []Violation {
	var out []Violation
	byID := make(map[int64]*Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}

	for _, c := range contacts {
		switch {
		case !c.LinkPrecedence.IsValid():
			out = append(out, Violation{c.ID, fmt.Sprintf("unknown precedence %q", c.LinkPrecedence)})
		case c.IsPrimary() && c.LinkedID != nil:
			out = append(out, Violation{c.ID, "primary carries a linked id"})
		case !c.IsPrimary() && c.LinkedID == nil:
			out = append(out, Violation{c.ID, "secondary without linked id"})
		case !c.IsPrimary():
			parent, ok := byID[*c.LinkedID]
			if !ok {
				out = append(out, Violation{c.ID, fmt.Sprintf("linked to missing contact %d", *c.LinkedID)})
			} else if !parent.IsPrimary() {
				out = append(out, Violation{c.ID, fmt.Sprintf("linked to secondary %d", parent.ID)})
			}
		}
	}

	pairs := make(map[[2]string]int64, len(contacts))
	for _, c := range contacts {
		key := [2]string{c.Email, c.PhoneNumber}
		if first, ok := pairs[key]; ok {
			out = append(out, Violation{c.ID, fmt.Sprintf("duplicates identifier pair of contact %d", first)})
			continue
		}
		pairs[key] = c.ID
	}

	for _, component := range components(contacts, byID) {
		oldest := SelectPrimary(component)
		primaries := 0
		for _, c := range component {
			if c.IsPrimary() {
				primaries++
			}
		}
		if primaries != 1 {
			out = append(out, Violation{oldest.ID, fmt.Sprintf("component has %d primaries", primaries)})
		}
		if !oldest.IsPrimary() {
			out = append(out, Violation{oldest.ID, "oldest member of component is not primary"})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ContactID < out[j].ContactID })
	return out
}

func components(contacts []*Contact, byID map[int64]*Contact) [][]*Contact {
	parent := make(map[int64]int64, len(contacts))
	var find func(int64) int64
	find = func(id int64) int64 {
		for parent[id] != id {
			parent[id] = parent[parent[id]]
			id = parent[id]
		}
		return id
	}
	union := func(a, b int64) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, c := range contacts {
		parent[c.ID] = c.ID
	}
	byEmail := make(map[string]int64)
	byPhone := make(map[string]int64)
	for _, c := range contacts {
		if c.Email != "" {
			if other, ok := byEmail[c.Email]; ok {
				union(c.ID, other)
			} else {
				byEmail[c.Email] = c.ID
			}
		}
		if c.PhoneNumber != "" {
			if other, ok := byPhone[c.PhoneNumber]; ok {
				union(c.ID, other)
			} else {
				byPhone[c.PhoneNumber] = c.ID
			}
		}
		if c.LinkedID != nil {
			if _, ok := byID[*c.LinkedID]; ok {
				union(c.ID, *c.LinkedID)
			}
		}
	}

	groups := make(map[int64][]*Contact)
	var roots []int64
	for _, c := range contacts {
		root := find(c.ID)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], c)
	}
	out := make([][]*Contact, 0, len(roots))
	for _, r := range roots {
		out = append(out, groups[r])
	}
	return out
}
