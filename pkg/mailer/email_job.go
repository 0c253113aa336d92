package mailer

// EmailJob is one rendered-or-renderable notification. When Template is set,
// Subject, Text and HTML are produced from it and Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "booking_requested", "booking_status", "booking_completed"
	Data     map[string]any `json:"data,omitempty"`
}
