package stepcalc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage identifies the part of the engine that recorded a step.
type Stage int8

const (
	StageTokenize Stage = iota
	StageParse
	StageEvaluate
	StageResult
)

func (s Stage) String() string {
	switch s {
	case StageTokenize:
		return "tokenize"
	case StageParse:
		return "parse"
	case StageEvaluate:
		return "evaluate"
	case StageResult:
		return "result"
	default:
		return fmt.Sprintf("Stage(%d)", int8(s))
	}
}

// Step is one entry in a transcript.
type Step struct {
	Stage Stage
	Text  string
}

// Steps is an append-only record of the actions taken to tokenize, parse, and
// evaluate an expression, in the order they happened. A nil *Steps discards
// everything logged to it.
type Steps struct {
	entries []Step
}

// Log appends a step.
func (s *Steps) Log(stage Stage, text string) {
	if s == nil {
		return
	}
	s.entries = append(s.entries, Step{Stage: stage, Text: text})
}

// Logf appends a step formatted with fmt.Sprintf.
func (s *Steps) Logf(stage Stage, format string, args ...any) {
	if s == nil {
		return
	}
	s.Log(stage, fmt.Sprintf(format, args...))
}

// Transcript returns the text of every step, one per line.
func (s *Steps) Transcript() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	for i, e := range s.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Text)
	}
	return b.String()
}

// Entries returns a copy of the recorded steps.
func (s *Steps) Entries() []Step {
	if s == nil {
		return nil
	}
	return append([]Step(nil), s.entries...)
}

// Texts returns the text of each recorded step.
func (s *Steps) Texts() []string {
	if s == nil {
		return nil
	}
	r := make([]string, len(s.entries))
	for i, e := range s.entries {
		r[i] = e.Text
	}
	return r
}

// Len returns the number of recorded steps.
func (s *Steps) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Clear removes all steps.
func (s *Steps) Clear() {
	if s == nil {
		return
	}
	s.entries = s.entries[:0]
}

// MarshalJSON encodes the steps as a list of their texts.
func (s *Steps) MarshalJSON() ([]byte, error) {
	t := s.Texts()
	if t == nil {
		t = []string{}
	}
	return json.Marshal(t)
}
