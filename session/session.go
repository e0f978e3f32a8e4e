// Package session evaluates expressions for one user, tracing each
// evaluation and saving successful ones to a history sink.
package session

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/zephyrtronium/stepcalc"
	"github.com/zephyrtronium/stepcalc/history"
	"github.com/zephyrtronium/stepcalc/telemetry"
	"github.com/zephyrtronium/stepcalc/value"
)

// Session evaluates expressions in a shared variable environment. It is safe
// for concurrent use; evaluations are serialized.
type Session struct {
	// ID identifies the session in logs and spans.
	ID     string
	UserID string

	mu     sync.Mutex
	ev     *stepcalc.Evaluator
	sink   history.Sink
	tracer trace.Tracer
	inst   *telemetry.Instruments
	log    *slog.Logger
}

// Option configures a session.
type Option func(*Session)

// WithEvaluator sets the evaluator the session uses. By default it uses
// stepcalc.New().
func WithEvaluator(ev *stepcalc.Evaluator) Option {
	return func(s *Session) { s.ev = ev }
}

// WithSink sets where successful evaluations are saved. By default nothing
// is saved.
func WithSink(sink history.Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithUserID sets the user recorded in history.
func WithUserID(id string) Option {
	return func(s *Session) { s.UserID = id }
}

// WithTracer sets the tracer for evaluation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithInstruments sets the instruments for evaluation metrics.
func WithInstruments(in *telemetry.Instruments) Option {
	return func(s *Session) { s.inst = in }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// New creates a session.
func New(opts ...Option) *Session {
	s := &Session{ID: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	if s.ev == nil {
		s.ev = stepcalc.New()
	}
	if s.sink == nil {
		s.sink = history.Discard
	}
	if s.tracer == nil {
		s.tracer = tracenoop.NewTracerProvider().Tracer(telemetry.ScopeName)
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	s.log = s.log.With(slog.String("session", s.ID))
	return s
}

// Result is the outcome of a successful evaluation.
type Result struct {
	Value      value.Value `json:"-"`
	Kind       string      `json:"kind"`
	Text       string      `json:"result"`
	Transcript string      `json:"-"`
	Steps      []string    `json:"steps"`
	// RecordID is the history ID of the evaluation, or 0 if it was not saved.
	RecordID int64 `json:"record_id,omitempty"`
}

// Evaluate evaluates an expression and saves it to the session's history.
// A failure to save is logged and otherwise ignored. Failed evaluations are
// not saved.
func (s *Session) Evaluate(ctx context.Context, src string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "stepcalc.evaluate", trace.WithAttributes(
		attribute.String("stepcalc.session", s.ID),
		attribute.String("stepcalc.expression", src),
	))
	defer span.End()

	start := time.Now()
	v, transcript, err := s.ev.Evaluate(src)
	elapsed := time.Since(start)
	if err != nil {
		et := errorType(err)
		s.inst.Record(ctx, "", et, elapsed, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("stepcalc.error_type", et))
		s.log.DebugContext(ctx, "evaluation failed", slog.String("expr", src), slog.String("error_type", et), slog.Any("err", err))
		return Result{}, err
	}

	steps := s.ev.Steps().Texts()
	kind := v.Kind().String()
	s.inst.Record(ctx, kind, "", elapsed, len(steps))
	span.SetAttributes(
		attribute.String("stepcalc.kind", kind),
		attribute.Int("stepcalc.steps", len(steps)),
	)
	r := Result{
		Value:      v,
		Kind:       kind,
		Text:       v.String(),
		Transcript: transcript,
		Steps:      steps,
	}

	rec := history.NewRecord(s.UserID, src, r.Text, kind, steps)
	id, err := s.sink.Insert(ctx, rec)
	if err != nil {
		span.AddEvent("history insert failed", trace.WithAttributes(attribute.String("error", err.Error())))
		s.log.WarnContext(ctx, "saving history failed", slog.String("expr", src), slog.Any("err", err))
		return r, nil
	}
	r.RecordID = id
	s.log.DebugContext(ctx, "evaluated", slog.String("expr", src), slog.String("kind", kind), slog.Int64("record", id), slog.Duration("elapsed", elapsed))
	return r, nil
}

// Set sets a variable in the session's environment.
func (s *Session) Set(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ev.Set(name, v)
}

// Vars returns a copy of the session's variables.
func (s *Session) Vars() map[string]value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ev.Vars()
}

// Parse parses an expression with the session's functions without
// evaluating it.
func (s *Session) Parse(src string) (*stepcalc.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ev.Parse(src)
}

// errorType names the dynamic type of err, without the package or pointer.
func errorType(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "error"
	}
	return t.Name()
}
