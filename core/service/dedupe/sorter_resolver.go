// Package dedupe groups contacts that share a normalized identifier and
// picks one survivor per group.
package dedupe

import (
	"fmt"
	"sort"

	"sorter/core/domain"
	"sorter/pkg/normalize"
)

// Resolve returns one group per normalized identifier shared by more than one
// contact, ordered by key. The survivor is independent of input order.
func Resolve(contacts []*domain.Contact) []domain.DuplicateGroup {
	byKey := make(map[string][]*domain.Contact)
	for _, c := range contacts {
		if c == nil {
			continue
		}
		key := normalize.Identifier(c.Identifier)
		byKey[key] = append(byKey[key], c)
	}

	groups := make([]domain.DuplicateGroup, 0)
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		ranked := make([]*domain.Contact, len(members))
		copy(ranked, members)
		sort.SliceStable(ranked, func(i, j int) bool { return better(ranked[i], ranked[j]) })

		groups = append(groups, domain.DuplicateGroup{
			Key:      key,
			Survivor: ranked[0],
			Archived: ranked[1:],
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// better orders by name presence, then message count, then id.
func better(a, b *domain.Contact) bool {
	if an, bn := a.HasName(), b.HasName(); an != bn {
		return an
	}
	if a.MessageCount != b.MessageCount {
		return a.MessageCount > b.MessageCount
	}
	return a.ID < b.ID
}

// Archivals turns groups into archive assignments for every non-survivor.
func Archivals(groups []domain.DuplicateGroup) []domain.CategoryAssignment {
	var out []domain.CategoryAssignment
	for _, g := range groups {
		for _, c := range g.Archived {
			out = append(out, domain.CategoryAssignment{
				ContactID: c.ID,
				Category:  domain.CategoryPtr(domain.CategoryArchived),
				Reason:    DuplicateReason(g.Survivor.ID),
				Source:    domain.SourceDuplicate,
			})
		}
	}
	return out
}

// DuplicateReason is the justification recorded on an archived duplicate.
func DuplicateReason(survivorID string) string {
	return fmt.Sprintf("duplicate of %s", survivorID)
}
