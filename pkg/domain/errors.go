package domain

import "errors"

// ErrServiceUnavailable is returned when a command is dispatched before the GUI is bound.
var ErrServiceUnavailable = errors.New("GUI window not available")

// ErrStudentIDRequired is returned when a submission carries no student identity.
var ErrStudentIDRequired = errors.New("studentId is required")

// ErrSubmissionNotFound is returned when a student identity has no recorded submission.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAlreadyBound is returned when the GUI handle is bound a second time.
var ErrAlreadyBound = errors.New("GUI execution context already bound")
