package portfolio

// NewPlaceholderRecord is what a fresh install shows before the owner edits anything.
func NewPlaceholderRecord() *Record {
	return &Record{
		Profile: Profile{
			Name:        "John Doe",
			Title:       "Senior Frontend Developer",
			Description: "Frontend developer focused on building accessible, fast and maintainable web applications.",
		},
		Portfolios: []ExperienceEntry{
			{
				ID:          1,
				Position:    "Frontend Developer",
				Company:     "Example Corp",
				StartDate:   "2023-01",
				EndDate:     "2025-01",
				Description: "Built and maintained the customer-facing web application.",
			},
		},
		Images: Images{},
	}
}
