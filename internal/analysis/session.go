package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Analyzer is the remote collaborator that turns a topic into a result.
type Analyzer interface {
	Analyze(ctx context.Context, topic string) (Response, error)
}

// Notice is emitted once for every attempt that settles as failed.
type Notice struct {
	AttemptID string
	Topic     string
	Kind      FailureKind
	Err       error
}

func (n Notice) String() string {
	if n.Err == nil {
		return fmt.Sprintf("analysis of %q failed", n.Topic)
	}
	return fmt.Sprintf("analysis of %q failed: %v", n.Topic, n.Err)
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session owns the lifecycle of the current analysis attempt. It is not safe
// for concurrent use: every method must be called from the same event loop.
// Only Request.Run may execute elsewhere.
type Session struct {
	analyzer   Analyzer
	logger     *zap.Logger
	notifier   Notifier
	now        func() time.Time
	generation uint64
	attempt    Attempt
}

func NewSession(analyzer Analyzer, opts ...Option) *Session {
	s := &Session{
		analyzer: analyzer,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new attempt for topic and returns the request that performs
// it. Any previously displayed result or failure is dropped before this
// returns. A still-pending earlier attempt is superseded: its settlement
// will be ignored.
func (s *Session) Start(topic string) *Request {
	if s.attempt.Status == StatusPending {
		s.logger.Warn("superseding pending analysis",
			zap.String("attempt_id", s.attempt.ID),
			zap.Uint64("generation", s.attempt.Generation),
		)
	}
	s.generation++
	s.attempt = Attempt{
		ID:         uuid.NewString(),
		Generation: s.generation,
		Topic:      topic,
		Status:     StatusPending,
		StartedAt:  s.now(),
	}
	s.logger.Info("analysis started",
		zap.String("attempt_id", s.attempt.ID),
		zap.Uint64("generation", s.generation),
		zap.String("topic", topic),
	)
	return &Request{
		analyzer:   s.analyzer,
		Generation: s.generation,
		AttemptID:  s.attempt.ID,
		Topic:      topic,
	}
}

// Settle applies the outcome of a request. It reports false, leaving the
// session untouched, when the settlement belongs to a superseded attempt or
// the current attempt has already settled.
func (s *Session) Settle(st Settlement) bool {
	if st.Generation != s.generation || s.attempt.Status != StatusPending {
		s.logger.Debug("dropping stale settlement",
			zap.String("attempt_id", st.AttemptID),
			zap.Uint64("generation", st.Generation),
			zap.Uint64("current_generation", s.generation),
			zap.Stringer("status", s.attempt.Status),
		)
		return false
	}

	err := st.Err
	if err == nil && !st.Response.Success {
		err = ErrAnalysisRejected
	}
	s.attempt.SettledAt = s.now()
	elapsed := s.attempt.SettledAt.Sub(s.attempt.StartedAt)

	if err != nil {
		s.attempt.Status = StatusFailed
		s.attempt.Failure = err
		s.attempt.FailureKind = ClassifyFailure(err)
		s.logger.Warn("analysis failed",
			zap.String("attempt_id", s.attempt.ID),
			zap.Stringer("kind", s.attempt.FailureKind),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if s.notifier != nil {
			s.notifier.Notify(Notice{
				AttemptID: s.attempt.ID,
				Topic:     s.attempt.Topic,
				Kind:      s.attempt.FailureKind,
				Err:       err,
			})
		}
		return true
	}

	s.attempt.Status = StatusSucceeded
	s.attempt.Payload = st.Response.Data
	s.attempt.SavedTo = st.Response.SavedTo
	s.logger.Info("analysis succeeded",
		zap.String("attempt_id", s.attempt.ID),
		zap.String("saved_to", s.attempt.SavedTo),
		zap.Int("payload_bytes", len(s.attempt.Payload)),
		zap.Duration("elapsed", elapsed),
	)
	return true
}

// Await runs req on the calling goroutine and settles it. Intended for
// callers without an event loop of their own.
func (s *Session) Await(ctx context.Context, req *Request) Attempt {
	s.Settle(req.Run(ctx))
	return s.attempt
}

func (s *Session) Attempt() Attempt { return s.attempt }

func (s *Session) Status() Status { return s.attempt.Status }

func (s *Session) Pending() bool { return s.attempt.Status == StatusPending }

func (s *Session) View() View { return SelectView(s.attempt) }

// Request is a single issued analysis. Run performs the network call at most
// once; later calls return the first settlement.
type Request struct {
	analyzer   Analyzer
	Generation uint64
	AttemptID  string
	Topic      string

	once       sync.Once
	settlement Settlement
}

type Settlement struct {
	Generation uint64
	AttemptID  string
	Response   Response
	Err        error
}

func (r *Request) Run(ctx context.Context) Settlement {
	r.once.Do(func() {
		resp, err := r.analyzer.Analyze(ctx, r.Topic)
		r.settlement = Settlement{
			Generation: r.Generation,
			AttemptID:  r.AttemptID,
			Response:   resp,
			Err:        err,
		}
	})
	return r.settlement
}
