package logentry

import "time"

// Log entry statuses as they appear on the wire.
const (
	StatusInfo    = "INFO"
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// Entry is one backend activity record. Entries are owned by the log
// store; the console only reads them and may trigger a clear-all.
type Entry struct {
	ID          string    `json:"id"`
	CreatedDate time.Time `json:"createdDate"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Context     string    `json:"context"`
}
