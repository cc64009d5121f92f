package ports

import "context"

// ScriptEvaluator is the GUI execution context: a running window able to evaluate
// script text and hand back the resulting value.
type ScriptEvaluator interface {
	// Evaluate runs the script and blocks until the window answers.
	Evaluate(ctx context.Context, script string) (any, error)
}

// ScriptEvaluatorFunc adapts a function to ScriptEvaluator.
type ScriptEvaluatorFunc func(ctx context.Context, script string) (any, error)

// Evaluate calls f(ctx, script).
func (f ScriptEvaluatorFunc) Evaluate(ctx context.Context, script string) (any, error) {
	return f(ctx, script)
}
