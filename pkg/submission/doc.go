// Package submission records learner answer submissions and reports their status.
//
// The service keeps at most one submission per student (a resubmission overwrites)
// and never advances a record past submitted_to_ai: that transition belongs to an
// external grader.
package submission
