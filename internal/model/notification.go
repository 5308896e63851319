package model

type Severity string

const (
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Notification is a transient, dismissible message shown on the next page
// render. It stays until the user clears it.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
