package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fundvault/internal/counter/models"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/sentinel"
)

// Store is the counter persistence boundary. IncrementAndGet must be atomic
// with respect to concurrent callers for the same name.
type Store interface {
	Get(ctx context.Context, name string) (*models.Counter, error)
	IncrementAndGet(ctx context.Context, name string, by int64) (*models.Counter, error)
	List(ctx context.Context) ([]models.Counter, error)
	Seed(ctx context.Context, counters []models.Counter) error
}

// Reservation is the result of atomically claiming the next ordinal for an
// entity type: the rendered code plus the ordinal it encodes.
type Reservation struct {
	Code string
	Seq  int64
}

// Service issues formatted sequence codes. Reserve claims and formats in one
// atomic step, so the code handed to the caller and the stored seq cannot
// drift under concurrent creation.
type Service struct {
	store  Store
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("fundvault/counter"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Increment atomically adds by to the named counter. Counters are seeded at
// deploy time; an unseeded name is a deployment fault and fails with NotFound
// rather than auto-creating a row at zero.
func (s *Service) Increment(ctx context.Context, name string, by int64) error {
	if by <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "increment must be positive")
	}
	if _, err := s.store.IncrementAndGet(ctx, name, by); err != nil {
		return wrapCounterErr(err, name)
	}
	return nil
}

// Reserve atomically claims the next ordinal for name and renders it with the
// counter's template against the reference time.
func (s *Service) Reserve(ctx context.Context, name string, ref time.Time) (*Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "counter.Reserve",
		trace.WithAttributes(attribute.String("counter.name", name)))
	defer span.End()

	c, err := s.store.IncrementAndGet(ctx, name, 1)
	if err != nil {
		return nil, wrapCounterErr(err, name)
	}

	// The store returns the post-increment seq; Format renders seq+1, so we
	// hand it the pre-increment value to display the ordinal just claimed.
	code := Format(c.Template, c.Seq-1, ref, c.SeqPad)

	s.logger.DebugContext(ctx, "sequence code reserved",
		"counter", name,
		"seq", c.Seq,
		"code", code,
	)
	return &Reservation{Code: code, Seq: c.Seq}, nil
}

// Preview renders the next code for name without claiming it. Read-only; the
// previewed code is only a hint and may be taken by a concurrent writer.
func (s *Service) Preview(ctx context.Context, name string, ref time.Time) (string, error) {
	c, err := s.store.Get(ctx, name)
	if err != nil {
		return "", wrapCounterErr(err, name)
	}
	return Format(c.Template, c.Seq, ref, c.SeqPad), nil
}

func (s *Service) List(ctx context.Context) ([]models.Counter, error) {
	counters, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list counters")
	}
	return counters, nil
}

// SeedDefaults provisions the deploy-time counter set, leaving existing rows
// untouched.
func (s *Service) SeedDefaults(ctx context.Context) error {
	if err := s.store.Seed(ctx, models.Seed()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed counters")
	}
	return nil
}

func wrapCounterErr(err error, name string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "counter not seeded: "+name)
	case errors.Is(err, sentinel.ErrRetryExhausted):
		return dErrors.Wrap(err, dErrors.CodeConflict, "counter contention exhausted retries: "+name)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "counter store failure")
	}
}
