package domain

import "time"

// SubmissionStatus is the lifecycle state of a recorded Submission.
type SubmissionStatus string

const (
	// StatusSubmittedToAI is set on every record written by the bridge.
	StatusSubmittedToAI SubmissionStatus = "submitted_to_ai"
)

// Status strings reported by a status query.
const (
	ReportProcessing   = "processing"
	ReportNoSubmission = "no_submission"

	// ProcessingMessage accompanies ReportProcessing.
	ProcessingMessage = "AI is analyzing your answers..."
)

// Submission is the current answer set of one student.
// A store holds at most one Submission per StudentID.
type Submission struct {
	StudentID string           `json:"studentId"`
	TicketID  any              `json:"ticketId"`
	Answers   any              `json:"answers"`
	Status    SubmissionStatus `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
}

// SubmissionRequest is the decoded body of an answer submission.
// TicketID and Answers are opaque and kept exactly as sent.
type SubmissionRequest struct {
	StudentID string `mapstructure:"studentId"`
	TicketID  any    `mapstructure:"ticketId"`
	Answers   any    `mapstructure:"answers"`
}

// StatusReport is what a status query returns for one student.
type StatusReport struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Snapshot returns a copy of the submission that shares no maps or slices with s.
// TicketID and Answers are copied deeply when they hold decoded JSON
// (map[string]any and []any); other values are copied as is.
func (s *Submission) Snapshot() *Submission {
	if s == nil {
		return nil
	}
	c := *s
	c.TicketID = cloneJSON(s.TicketID)
	c.Answers = cloneJSON(s.Answers)
	return &c
}

func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneJSON(e)
		}
		return m
	case []any:
		if t == nil {
			return t
		}
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = cloneJSON(e)
		}
		return l
	default:
		return v
	}
}
