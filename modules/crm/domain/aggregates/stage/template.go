package stage

// TemplateEntry is one (name, order) pair of the default pipeline seeded at
// registration. Stages are never created or deleted afterwards, only renamed
// and reordered.
type TemplateEntry struct {
	Name  string
	Order int
}

func DefaultTemplate() []TemplateEntry {
	return []TemplateEntry{
		{Name: "New", Order: 0},
		{Name: "Contacted", Order: 1},
		{Name: "Proposal", Order: 2},
		{Name: "Negotiation", Order: 3},
		{Name: "Won", Order: 4},
	}
}
