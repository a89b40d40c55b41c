package qaclient

import "fmt"

var ErrInvalidApiUrl = fmt.Errorf("invalid API URL, expected something like https://qa.example.com/yourclinic/api/")

var ErrServiceUnreachable = fmt.Errorf("unable to contact the QA service, check your URL and API key")

// SubmissionError is returned when the server rejects a session POST.
// The body is kept verbatim so an operator can see the server's complaint.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("failed to repeat session: status %d", e.StatusCode)
	}
	return fmt.Sprintf("failed to repeat session: status %d: %s", e.StatusCode, e.Body)
}
