package gui

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNilEvaluator is returned when binding a nil evaluator.
var ErrNilEvaluator = errors.New("nil script evaluator")

// EntryPoint is the front-end function every command is routed through.
const EntryPoint = "window.localApi.executeCommand"

// BuildInvocation renders the script that hands a command to the front end.
//
// Both arguments are emitted as JSON literals. encoding/json escapes quotes, backslashes,
// control characters, <, >, & and U+2028/U+2029, so neither the name nor the payload can
// terminate its literal and inject script.
func BuildInvocation(command string, payload map[string]any) (string, error) {
	name, err := json.Marshal(command)
	if err != nil {
		return "", fmt.Errorf("failed to encode command name: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	args, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return fmt.Sprintf("%s(%s, %s)", EntryPoint, name, args), nil
}
