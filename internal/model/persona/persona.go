package persona

// Character captures the display metadata of a persona the user can talk to.
type Character struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Subtitle    string `json:"subtitle" yaml:"subtitle"`
	Description string `json:"description" yaml:"description"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`   // chat header line
	Accent      string `json:"accent,omitempty" yaml:"accent,omitempty"` // hex colour hint for presentation layers
}

// HeaderTitle returns the line shown under the name on the chat screen.
func (c Character) HeaderTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Subtitle
}

// Seed provides the built-in persona list in display order.
func Seed() []Character {
	return []Character{
		{
			ID:          "walter-white",
			Name:        "Walter White",
			Subtitle:    "The Chemistry Teacher",
			Description: "Precise, calculating, and methodical. I am the one who knocks.",
			Title:       "Chemistry Teacher Turned Kingpin",
			Accent:      "#39d353",
		},
		{
			ID:          "dexter",
			Name:        "Dexter Morgan",
			Subtitle:    "The Dark Passenger",
			Description: "Analytical, methodical, and eerily calm. Tonight's the night.",
			Title:       "Blood Spatter Analyst",
			Accent:      "#c0392b",
		},
		{
			ID:          "thomas-shelby",
			Name:        "Thomas Shelby",
			Subtitle:    "The Peaky Blinder",
			Description: "Strategic, ambitious, and ruthless. By order of the Peaky Blinders.",
			Title:       "Birmingham Gang Leader",
			Accent:      "#e67e22",
		},
		{
			ID:          "jesse-pinkman",
			Name:        "Jesse Pinkman",
			Subtitle:    "The Street Smart Sidekick",
			Description: "Yo, science, bitch! Street smart, impulsive, and loyal.",
			Title:       "Street-Smart Meth Cook and Rebel",
			Accent:      "#3fa9f5",
		},
		{
			ID:          "harvey-specter",
			Name:        "Harvey Specter",
			Subtitle:    "The Closer",
			Description: "Slick, confident, and always three steps ahead.",
			Title:       "The Closer, Top Corporate Lawyer",
			Accent:      "#7f8c8d",
		},
		{
			ID:          "mike-ross",
			Name:        "Mike Ross",
			Subtitle:    "The Prodigy",
			Description: "Photographic memory. Intuitive. Always fighting for what's right.",
			Title:       "Legal Prodigy with a Photographic Memory",
			Accent:      "#5dade2",
		},
		{
			ID:          "louis-litt",
			Name:        "Louis Litt",
			Subtitle:    "The Eccentric Genius",
			Description: "Brilliant, neurotic, and totally Litt up!",
			Title:       "Name Partner and Cat-Loving Litigator",
			Accent:      "#8e44ad",
		},
	}
}
