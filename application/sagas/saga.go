package sagas

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"foodiary/domain/core/valueobjects"

	"go.uber.org/zap"
)

// SagaState represents the current state of a saga execution
type SagaState string

const (
	SagaStateIdle         SagaState = "IDLE"
	SagaStateRunning      SagaState = "RUNNING"
	SagaStateCommitted    SagaState = "COMMITTED"
	SagaStateCompensating SagaState = "COMPENSATING"
	SagaStateCompensated  SagaState = "COMPENSATED"
)

// ErrSagaAlreadyRun is returned when Run is called on a used saga
var ErrSagaAlreadyRun = errors.New("saga has already run")

// Compensation undoes a side effect of the guarded block
type Compensation func(ctx context.Context) error

// CompensationRecorder is notified of every compensation that failed
type CompensationRecorder interface {
	RecordCompensationFailure(ctx context.Context, saga, compensation string)
}

type namedCompensation struct {
	name string
	fn   Compensation
}

// Saga guards a block of work that spans systems without a shared
// transaction. Compensations registered while the block runs are invoked in
// reverse order if it fails. A saga runs once.
type Saga struct {
	id       string
	name     string
	logger   *zap.Logger
	recorder CompensationRecorder

	mu            sync.Mutex
	state         SagaState
	compensations []namedCompensation
}

// NewSaga creates a new saga instance; recorder may be nil
func NewSaga(name string, logger *zap.Logger, recorder CompensationRecorder) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		id:       "saga_" + valueobjects.NewID(),
		name:     name,
		logger:   logger,
		recorder: recorder,
		state:    SagaStateIdle,
	}
}

// AddCompensation registers a rollback action. The most recently added
// compensation runs first.
func (s *Saga) AddCompensation(name string, fn Compensation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compensations = append(s.compensations, namedCompensation{name: name, fn: fn})
}

// Run executes fn. On success the compensations are discarded. On failure
// every compensation runs, best-effort and newest first, and fn's error is
// returned unchanged.
func (s *Saga) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.state != SagaStateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: saga %s is %s", ErrSagaAlreadyRun, s.name, state)
	}
	s.state = SagaStateRunning
	s.mu.Unlock()

	s.logger.Debug("Starting saga execution",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
	)

	err := fn(ctx)
	if err == nil {
		s.mu.Lock()
		s.state = SagaStateCommitted
		s.compensations = nil
		s.mu.Unlock()

		s.logger.Debug("Saga committed",
			zap.String("saga_id", s.id),
			zap.String("saga_name", s.name),
		)
		return nil
	}

	s.logger.Warn("Saga failed, compensating",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
		zap.Error(err),
	)
	s.compensate(ctx)
	return err
}

// compensate runs compensation logic in reverse order
func (s *Saga) compensate(ctx context.Context) {
	s.mu.Lock()
	s.state = SagaStateCompensating
	compensations := s.compensations
	s.compensations = nil
	s.mu.Unlock()

	// rollbacks run even when ctx is already cancelled
	ctx = context.WithoutCancel(ctx)

	failed := 0
	for i := len(compensations) - 1; i >= 0; i-- {
		c := compensations[i]
		if err := s.runCompensation(ctx, c); err != nil {
			failed++
			s.logger.Error("Compensation failed",
				zap.String("saga_id", s.id),
				zap.String("saga_name", s.name),
				zap.String("compensation", c.name),
				zap.Error(err),
			)
			if s.recorder != nil {
				s.recorder.RecordCompensationFailure(ctx, s.name, c.name)
			}
		}
	}

	s.mu.Lock()
	s.state = SagaStateCompensated
	s.mu.Unlock()

	s.logger.Info("Saga compensated",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
		zap.Int("compensations", len(compensations)),
		zap.Int("failed", failed),
	)
}

// runCompensation turns a panicking compensation into an error so the
// remaining ones still run
func (s *Saga) runCompensation(ctx context.Context, c namedCompensation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compensation %s panicked: %v", c.name, r)
		}
	}()
	return c.fn(ctx)
}

// State returns the current state of the saga
func (s *Saga) State() SagaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID returns the saga ID
func (s *Saga) ID() string {
	return s.id
}
