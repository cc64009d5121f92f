/*
Package ports defines the driven ports (interfaces) of the bridge.

These interfaces decouple the dispatcher and the submission service from concrete
backends, so the same core runs against an in-memory map, Redis, a real GUI host
process or a test double.

# Key Interfaces

  - ScriptEvaluator: the GUI execution context that evaluates script text.
  - SubmissionStore: keeps the current submission of each student.
*/
package ports
