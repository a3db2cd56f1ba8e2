package viewmodels

type Stage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type Lead struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Company      string  `json:"company,omitempty"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Value        *string `json:"value,omitempty"`
	ValueDisplay string  `json:"valueDisplay,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	StageID      *string `json:"stageId"`
	Stage        *Stage  `json:"stage,omitempty"`
	Position     int     `json:"position"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// Board is the canonical GET /api/leads payload: every stage plus every
// lead, already sorted for rendering.
type Board struct {
	Stages []Stage `json:"stages"`
	Leads  []Lead  `json:"leads"`
}
