package session_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zephyrtronium/stepcalc"
	"github.com/zephyrtronium/stepcalc/history"
	"github.com/zephyrtronium/stepcalc/session"
	"github.com/zephyrtronium/stepcalc/value"
)

func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return exporter, tp
}

func newStore(t *testing.T) history.Store {
	t.Helper()
	s, err := history.OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type failingSink struct {
	calls int
}

func (f *failingSink) Insert(context.Context, history.Record) (int64, error) {
	f.calls++
	return 0, errors.New("disk full")
}

func TestEvaluate(t *testing.T) {
	store := newStore(t)
	s := session.New(session.WithSink(store), session.WithUserID("ada"))
	ctx := context.Background()
	r, err := s.Evaluate(ctx, "x = 2 + 3")
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(r.Value, value.Scalar(5)) {
		t.Errorf("want 5, got %v", r.Value)
	}
	if r.Kind != "Scalar" || r.Text != "5" {
		t.Errorf("wrong result description: %+v", r)
	}
	if r.RecordID == 0 {
		t.Error("result not saved")
	}
	if want := strings.Join(r.Steps, "\n"); r.Transcript != want {
		t.Errorf("transcript %q doesn't match steps %q", r.Transcript, want)
	}
	r, err = s.Evaluate(ctx, "x * 2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "10" {
		t.Errorf("variable not kept: got %v", r.Value)
	}

	recs, err := store.List(ctx, "ada", 0)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(recs))
	for i, rec := range recs {
		got[i] = rec.Expression + " -> " + rec.Result + " (" + rec.ComputationType + ")"
	}
	want := []string{"x * 2 -> 10 (scalar)", "x = 2 + 3 -> 5 (scalar)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(r.Steps, recs[0].Steps); diff != "" {
		t.Errorf("saved steps (-want +got):\n%s", diff)
	}
}

func TestEvaluateErrorNotSaved(t *testing.T) {
	store := newStore(t)
	s := session.New(session.WithSink(store))
	ctx := context.Background()
	_, err := s.Evaluate(ctx, "1 / 0")
	if !errors.As(err, new(*value.DivisionByZeroError)) {
		t.Fatalf("want DivisionByZeroError, got %v", err)
	}
	_, err = s.Evaluate(ctx, "y + 1")
	if !errors.As(err, new(*stepcalc.UnresolvedIdentifierError)) {
		t.Fatalf("want UnresolvedIdentifierError, got %v", err)
	}
	recs, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("failed evaluations saved: %v", recs)
	}
}

func TestEvaluateSinkFailure(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := new(failingSink)
	s := session.New(session.WithSink(sink), session.WithLogger(log))
	r, err := s.Evaluate(context.Background(), "2 ^ 10")
	if err != nil {
		t.Fatalf("sink failure changed the result: %v", err)
	}
	if r.Text != "1024" {
		t.Errorf("want 1024, got %v", r.Value)
	}
	if r.RecordID != 0 {
		t.Errorf("unsaved result has record id %d", r.RecordID)
	}
	if sink.calls != 1 {
		t.Errorf("want 1 insert, got %d", sink.calls)
	}
	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("sink failure not logged: %s", buf.String())
	}
}

func TestEvaluateSpans(t *testing.T) {
	exporter, tp := newTestTracer()
	s := session.New(session.WithTracer(tp.Tracer("test")))
	ctx := context.Background()
	if _, err := s.Evaluate(ctx, "Matrix([[1, 2], [3, 4]]).det()"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Evaluate(ctx, "sqrt(-1)"); err == nil {
		t.Fatal("sqrt(-1) gave no error")
	}
	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("want 2 spans, got %d", len(spans))
	}
	attrs := func(i int) map[string]string {
		m := make(map[string]string)
		for _, kv := range spans[i].Attributes {
			m[string(kv.Key)] = kv.Value.Emit()
		}
		return m
	}
	ok := attrs(0)
	if ok["stepcalc.kind"] != "Scalar" {
		t.Errorf("wrong kind attribute: %v", ok)
	}
	if ok["stepcalc.session"] != s.ID {
		t.Errorf("wrong session attribute: %v", ok)
	}
	if spans[0].Status.Code == codes.Error {
		t.Error("successful evaluation has error status")
	}
	bad := attrs(1)
	if bad["stepcalc.error_type"] != "DomainError" {
		t.Errorf("wrong error type attribute: %v", bad)
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("failed evaluation has status %v", spans[1].Status)
	}
}

func TestSetVars(t *testing.T) {
	s := session.New()
	s.Set("a", value.Scalar(3))
	r, err := s.Evaluate(context.Background(), "a ^ 2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "9" {
		t.Errorf("want 9, got %v", r.Value)
	}
	if _, ok := s.Vars()["a"]; !ok {
		t.Error("variable missing from Vars")
	}
	tree, err := s.Parse("a + 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Postfix(); got != "a 1 +" {
		t.Errorf("want postfix a 1 +, got %q", got)
	}
}

func TestConcurrentEvaluate(t *testing.T) {
	s := session.New(session.WithSink(newStore(t)))
	done := make(chan error)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := s.Evaluate(context.Background(), "n = 1 + 1")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}
