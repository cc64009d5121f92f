package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/aretw0/studiobridge/internal/logging"
	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/aretw0/studiobridge/pkg/metrics"
	"github.com/aretw0/studiobridge/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// ErrInvalidSubmission is returned when the submission body cannot be decoded.
var ErrInvalidSubmission = errors.New("invalid submission")

// Service records answer submissions and answers status queries.
type Service struct {
	store   ports.SubmissionStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger configures a logger for received submissions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics records accepted and rejected submissions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service over the given store.
func NewService(store ports.SubmissionStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode converts a loose submission body into a SubmissionRequest.
//
// A numeric identity is rendered as its decimal string. Falsy identities (false, 0)
// decode to the empty string and are rejected by Submit; any other non-string
// identity fails with ErrInvalidSubmission. TicketID and Answers are kept as sent.
func Decode(payload map[string]any) (domain.SubmissionRequest, error) {
	var req domain.SubmissionRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: identityHook,
		Result:     &req,
	})
	if err != nil {
		return req, err
	}
	if err := decoder.Decode(payload); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	return req, nil
}

// identityHook turns numbers and false into identity strings.
// Everything else reaches the decoder unchanged, so true, objects and arrays
// fail to decode into a string.
func identityHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	v := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.Bool:
		if !v.Bool() {
			return "", nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() == 0 {
			return "", nil
		}
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() == 0 {
			return "", nil
		}
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		if v.Float() == 0 {
			return "", nil
		}
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	}
	return data, nil
}

// Submit records the answers of one student, replacing any earlier submission.
// It fails with domain.ErrStudentIDRequired when the identity is missing or empty.
func (s *Service) Submit(ctx context.Context, payload map[string]any) error {
	req, err := Decode(payload)
	if err != nil {
		s.metrics.ObserveSubmission(metrics.SubmissionRejected)
		return err
	}
	if req.StudentID == "" {
		s.metrics.ObserveSubmission(metrics.SubmissionRejected)
		s.logger.Warn("Submission rejected", "reason", domain.ErrStudentIDRequired)
		return domain.ErrStudentIDRequired
	}

	sub := &domain.Submission{
		StudentID: req.StudentID,
		TicketID:  req.TicketID,
		Answers:   req.Answers,
		Status:    domain.StatusSubmittedToAI,
		Timestamp: s.now(),
	}
	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}

	s.metrics.ObserveSubmission(metrics.SubmissionAccepted)
	s.logger.Info("Received answers. Saved for AI processing.", "student_id", req.StudentID)
	return nil
}

// Status reports whether a student has a submission in flight.
//
// Any recorded submission is reported as processing: terminal states are never
// produced by the bridge, so the stored status is not consulted.
func (s *Service) Status(ctx context.Context, studentID string) (domain.StatusReport, error) {
	_, err := s.store.Load(ctx, studentID)
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		return domain.StatusReport{Status: domain.ReportNoSubmission}, nil
	}
	if err != nil {
		return domain.StatusReport{}, err
	}
	return domain.StatusReport{
		Status:  domain.ReportProcessing,
		Message: domain.ProcessingMessage,
	}, nil
}

// Get returns the full submission of one student for review.
func (s *Service) Get(ctx context.Context, studentID string) (*domain.Submission, error) {
	if studentID == "" {
		return nil, domain.ErrStudentIDRequired
	}
	return s.store.Load(ctx, studentID)
}

// List returns every current submission keyed by student identity.
func (s *Service) List(ctx context.Context) (map[string]*domain.Submission, error) {
	return s.store.List(ctx)
}
