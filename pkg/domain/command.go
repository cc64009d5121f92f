package domain

// Command is a named instruction addressed to the GUI front end.
// The command vocabulary belongs to the caller; the bridge only relays it.
type Command struct {
	Command string         `json:"command"`
	Payload map[string]any `json:"payload"`
}

// NewCommand creates a Command with an empty payload.
func NewCommand(name string) Command {
	return Command{
		Command: name,
		Payload: make(map[string]any),
	}
}

// DispatchResult is the outcome of relaying a Command into the GUI execution context.
//
// Value holds whatever the context returned. Err is set when the evaluation itself failed;
// in that case Value is nil and the failure has already been logged by the dispatcher.
type DispatchResult struct {
	Command string
	Value   any
	Err     error
}

// Failed reports whether the evaluation failed and the result was absorbed.
func (r DispatchResult) Failed() bool {
	return r.Err != nil
}
