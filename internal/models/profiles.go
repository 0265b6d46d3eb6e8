package models

// StaffingContact is a recipient that staffs a project (executive, company, rep).
type StaffingContact struct {
	RecipientID string  `json:"recipient_id"`
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// DisplayName falls back to the recipient id when no name is known.
func (s StaffingContact) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}

	return s.RecipientID
}

// ProjectProfile is the project side of a justification prompt.
type ProjectProfile struct {
	ProjectID   string            `json:"project_id"`
	Title       *string           `json:"title,omitempty"`
	MediaType   *string           `json:"media_type,omitempty"`
	Description string            `json:"description"`
	Genres      []string          `json:"genres"`
	Notes       []string          `json:"notes"`
	Staffing    []StaffingContact `json:"staffing"`
}

// Credit is a past (archived) project of a person with its survey ratings and derived weight.
type Credit struct {
	ProjectID         string   `json:"project_id"`
	Title             string   `json:"title"`
	MediaType         string   `json:"media_type"`
	Tags              []string `json:"tags"`
	InvolvementRating *float64 `json:"involvement_rating,omitempty"`
	InterestRating    *float64 `json:"interest_rating,omitempty"`
	Weight            float64  `json:"weight"`
}

// PersonProfile is the person side of a justification prompt.
type PersonProfile struct {
	Person
	Credits           []Credit `json:"credits"`
	CreditsForLLM     []Credit `json:"credits_for_llm"`
	InterestsAndGoals []string `json:"interests_and_goals"`
	Found             bool     `json:"-"`
}
