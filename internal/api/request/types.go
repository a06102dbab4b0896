package request

// LoginRequest is the body for player and host login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SubmitAvailabilityRequest is the body for a player submission
type SubmitAvailabilityRequest struct {
	Availability string `json:"availability"`
	Reason       string `json:"reason,omitempty"`
}

// MarkAttendanceRequest is the body for a host attendance mark
type MarkAttendanceRequest struct {
	Attended string `json:"attended"`
}

// AddPlayerRequest is the body for adding a roster member
type AddPlayerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PromoteHostRequest is the body for promoting a player to host
type PromoteHostRequest struct {
	Email    string `json:"email"`
	Role     string `json:"role"` // "host" or "cohost"
	Password string `json:"password"`
}

// RunPhaseRequest is the body for the manual phase re-run hook
type RunPhaseRequest struct {
	Date  string `json:"date"`
	Phase string `json:"phase"`
}
