package domain

// Invite is a pending team membership offer.
type Invite struct {
	ID        string `json:"id"`
	TeamID    string `json:"teamId"`
	InviterID string `json:"inviterId"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	Accepted  bool   `json:"accepted,omitempty"`
}
