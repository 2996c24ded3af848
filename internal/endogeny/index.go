package endogeny

import "sort"

// indexedPerson pairs a role-holder with its precomputed lookup keys.
type indexedPerson struct {
	person     RolePerson
	normalized string
	initials   string
}

// Index holds the lookup structures the matcher cascade runs against. It is
// built fresh for every evaluation call and never shared.
type Index struct {
	people     []indexedPerson
	byExact    map[string][]indexedPerson
	byInitials map[string][]indexedPerson
}

// NewIndex builds the three lookup structures over the roster. Role-holders
// with an empty normalized name are skipped. Entries are inserted in role
// priority order (editor, then board member, then reviewer) so that lookup
// collisions resolve to the strongest role rather than roster order luck.
func NewIndex(people []RolePerson) *Index {
	ordered := make([]RolePerson, len(people))
	copy(ordered, people)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rolePriority(ordered[i].Role) < rolePriority(ordered[j].Role)
	})

	idx := &Index{
		byExact:    make(map[string][]indexedPerson),
		byInitials: make(map[string][]indexedPerson),
	}
	for _, person := range ordered {
		normalized := NormalizeName(person.Name)
		if normalized == "" {
			continue
		}
		entry := indexedPerson{
			person:     person,
			normalized: normalized,
			initials:   InitialsFamilyKey(normalized),
		}
		idx.people = append(idx.people, entry)
		idx.byExact[normalized] = append(idx.byExact[normalized], entry)
		if entry.initials != "" {
			idx.byInitials[entry.initials] = append(idx.byInitials[entry.initials], entry)
		}
	}
	return idx
}

// Len returns the number of indexed role-holders.
func (idx *Index) Len() int {
	return len(idx.people)
}
