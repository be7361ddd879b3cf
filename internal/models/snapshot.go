package models

// PlanSnapshot is the persisted shape of a plan with all of its child rows
type PlanSnapshot struct {
	Plan         Plan          `json:"plan"`
	Options      []Option      `json:"options"`
	Votes        []Vote        `json:"votes"`
	Participants []Participant `json:"participants"`
	RSVPs        []RSVP        `json:"rsvps"`
}
