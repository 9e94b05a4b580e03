package assistant

import "github.com/matzehuels/keygraph/pkg/dataset"

// Run statuses.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusRequiresAction = "requires_action"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
	StatusIncomplete     = "incomplete"
)

// Reply is the outcome of one exchange.
type Reply struct {
	// Text is the raw assistant message.
	Text string `json:"reply"`

	// Data is Text decoded as a dataset.
	Data dataset.Dataset `json:"data"`

	ThreadID string `json:"thread_id,omitempty"`
	RunID    string `json:"run_id,omitempty"`

	// Cached is set when the reply came from the cache.
	Cached bool `json:"cached,omitempty"`
}

type thread struct {
	ID string `json:"id"`
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

type run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Status    string    `json:"status"`
	LastError *runError `json:"last_error"`
}

type runError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// terminal reports whether polling can stop.
func (r run) terminal() bool {
	switch r.Status {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired, StatusIncomplete, StatusRequiresAction:
		return true
	}
	return false
}

type messageList struct {
	Data []message `json:"data"`
}

type message struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

// text joins the message's text parts.
func (m message) text() string {
	var out string
	for _, p := range m.Content {
		if p.Type == "text" && p.Text != nil {
			if out != "" {
				out += "\n"
			}
			out += p.Text.Value
		}
	}
	return out
}
