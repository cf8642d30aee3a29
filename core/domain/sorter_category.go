package domain

// CategoryID is an opaque category identifier shared with the UI layer.
type CategoryID string

// Categories the engine knows about. The UI may add more; the engine never
// assigns anything outside this set.
const (
	CategoryUncategorized   CategoryID = "uncategorized"
	CategoryHighYielding    CategoryID = "high-yielding"
	CategoryMidYielding     CategoryID = "mid-yielding"
	CategoryPurdue          CategoryID = "purdue"
	CategoryHighSchool      CategoryID = "high-school"
	CategoryExla            CategoryID = "exla"
	CategoryNotHighYielding CategoryID = "not-high-yielding"
	CategorySpentEnoughTime CategoryID = "spent-enough-time"
	CategoryOutOfReach      CategoryID = "out-of-reach"
	CategoryArchived        CategoryID = "archived"
)

// IsKnown reports whether id belongs to the engine's vocabulary.
func (id CategoryID) IsKnown() bool {
	for _, c := range DefaultCategories() {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Category is one entry of the persisted category vocabulary.
type Category struct {
	ID    CategoryID `json:"id" db:"id"`
	Name  string     `json:"name" db:"name"`
	Color string     `json:"color" db:"color"`
	Order int        `json:"order" db:"sort_order"`
}

// DefaultCategories is the vocabulary seeded into a fresh contact store.
func DefaultCategories() []Category {
	return []Category{
		{ID: CategoryUncategorized, Name: "Uncategorized", Color: "#6B7280", Order: 0},
		{ID: CategoryHighYielding, Name: "High Yielding", Color: "#10B981", Order: 1},
		{ID: CategoryMidYielding, Name: "Mid-Yielding", Color: "#3B82F6", Order: 2},
		{ID: CategoryPurdue, Name: "Purdue", Color: "#CEB888", Order: 3},
		{ID: CategoryHighSchool, Name: "High School", Color: "#EC4899", Order: 4},
		{ID: CategoryExla, Name: "Exla", Color: "#8B5CF6", Order: 5},
		{ID: CategoryNotHighYielding, Name: "Not High Yielding", Color: "#F59E0B", Order: 6},
		{ID: CategorySpentEnoughTime, Name: "Spent Enough Time", Color: "#EF4444", Order: 7},
		{ID: CategoryOutOfReach, Name: "Out of Reach", Color: "#6366F1", Order: 8},
		{ID: CategoryArchived, Name: "Archived", Color: "#9CA3AF", Order: 9},
	}
}

// Settings is the presentational settings record kept by the UI.
type Settings struct {
	CategoryOrder []CategoryID `json:"categoryOrder"`
}

// OrderCategories sorts categories by a saved display order. Categories
// missing from the order keep their relative position after the ordered ones.
func OrderCategories(categories []Category, order []CategoryID) []Category {
	if len(order) == 0 {
		return categories
	}
	rank := make(map[CategoryID]int, len(order))
	for i, id := range order {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}

	ordered := make([]Category, 0, len(categories))
	var rest []Category
	for _, id := range order {
		for _, c := range categories {
			if c.ID == id && rank[id] >= 0 {
				ordered = append(ordered, c)
				rank[id] = -1
				break
			}
		}
	}
	for _, c := range categories {
		if _, ok := rank[c.ID]; !ok {
			rest = append(rest, c)
		}
	}
	return append(ordered, rest...)
}
