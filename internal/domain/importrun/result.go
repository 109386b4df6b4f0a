package importrun

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result records the outcome of one submitted email address. Results are
// appended in submission order and never mutated after creation; the list
// is cleared at the start of each new run.
type Result struct {
	Email    string `json:"email"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Response string `json:"response,omitempty"` // raw backend payload when one was received
}
