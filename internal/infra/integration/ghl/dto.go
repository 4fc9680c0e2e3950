package ghl

import "time"

// ContactInput is everything the forwarder needs to create or update one
// CRM contact.
type ContactInput struct {
	Email        string
	Phone        string
	FirstName    string
	LastName     string
	Tags         []string
	CustomFields map[string]string
	Source       string
}

// ForwardResult is the full snapshot of one push attempt: request, response
// and outcome. The retry ledger persists it verbatim.
type ForwardResult struct {
	RequestBody    []byte
	ResponseStatus int
	ResponseBody   []byte
	RequestedAt    time.Time
	RespondedAt    time.Time

	Success      bool
	ErrorMessage string
	ContactID    string
}

type contactPayload struct {
	LocationID  string            `json:"locationId"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	FirstName   string            `json:"firstName,omitempty"`
	LastName    string            `json:"lastName,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	CustomField map[string]string `json:"customField,omitempty"`
	Source      string            `json:"source,omitempty"`
}

type contactResponse struct {
	ID      string `json:"id"`
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
}
