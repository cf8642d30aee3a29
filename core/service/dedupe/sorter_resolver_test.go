package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorter/core/domain"
)

func contact(id, identifier string, count int, name string) *domain.Contact {
	c := domain.NewContact(domain.ExtractedContact{ID: id, Identifier: identifier, MessageCount: count})
	if name != "" {
		c.DisplayName = &name
	}
	return c
}

func TestResolve_NamedSurvivorRegardlessOfOrder(t *testing.T) {
	plain := contact("contact-1", "3175551234", 900, "")
	named := contact("contact-2", "+1 (317) 555-1234", 12, "Ada Lovelace")

	for _, input := range [][]*domain.Contact{{plain, named}, {named, plain}} {
		groups := Resolve(input)
		require.Len(t, groups, 1)
		assert.Equal(t, "3175551234", groups[0].Key)
		assert.Same(t, named, groups[0].Survivor)
		assert.Equal(t, []*domain.Contact{plain}, groups[0].Archived)
	}
}

func TestResolve_Ranking(t *testing.T) {
	custom := "Grace"
	withCustom := contact("contact-9", "grace@example.com", 1, "")
	withCustom.CustomName = &custom

	tests := []struct {
		name     string
		contacts []*domain.Contact
		survivor string
	}{
		{
			name: "higher count wins without names",
			contacts: []*domain.Contact{
				contact("contact-1", "3175550000", 5, ""),
				contact("contact-2", "+13175550000", 50, ""),
			},
			survivor: "contact-2",
		},
		{
			name: "id breaks full ties",
			contacts: []*domain.Contact{
				contact("contact-8", "3175550000", 5, ""),
				contact("contact-3", "(317) 555-0000", 5, ""),
			},
			survivor: "contact-3",
		},
		{
			name: "custom name counts as a name",
			contacts: []*domain.Contact{
				contact("contact-1", "Grace@Example.com", 400, ""),
				withCustom,
			},
			survivor: "contact-9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Resolve(tt.contacts)
			require.Len(t, groups, 1)
			assert.Equal(t, tt.survivor, groups[0].Survivor.ID)

			reversed := []*domain.Contact{tt.contacts[1], tt.contacts[0]}
			assert.Equal(t, tt.survivor, Resolve(reversed)[0].Survivor.ID)
		})
	}
}

func TestResolve_OnlyGroupsWithDuplicates(t *testing.T) {
	groups := Resolve([]*domain.Contact{
		contact("contact-1", "3175550000", 5, ""),
		contact("contact-2", "someone@example.com", 5, ""),
		nil,
	})
	assert.Empty(t, groups)
	assert.Empty(t, Archivals(groups))
}

func TestArchivals(t *testing.T) {
	groups := Resolve([]*domain.Contact{
		contact("contact-1", "3175550000", 5, ""),
		contact("contact-2", "+13175550000", 50, ""),
		contact("contact-3", "13175550000", 1, ""),
		contact("contact-4", "a@b.com", 1, "A"),
		contact("contact-5", "A@B.com", 1, ""),
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "3175550000", groups[0].Key)
	assert.Equal(t, "a@b.com", groups[1].Key)

	got := Archivals(groups)
	require.Len(t, got, 3)
	assert.Equal(t, "contact-1", got[0].ContactID)
	assert.Equal(t, "contact-3", got[1].ContactID)
	assert.Equal(t, "contact-5", got[2].ContactID)
	for _, a := range got[:2] {
		assert.Equal(t, domain.CategoryArchived, *a.Category)
		assert.Equal(t, "duplicate of contact-2", a.Reason)
		assert.Equal(t, domain.SourceDuplicate, a.Source)
	}
	assert.Equal(t, "duplicate of contact-4", got[2].Reason)
}
