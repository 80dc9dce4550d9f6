package license

// Outcome is the result of reconciling one webhook event: an HTTP status
// for the provider, a human message and the ids of everything affected.
type Outcome struct {
	Status   int         `json:"-"`
	Message  string      `json:"message"`
	UserID   string      `json:"userId,omitempty"`
	Licenses []string    `json:"licenses,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}
