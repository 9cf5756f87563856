package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRelevanceFromLabel(t *testing.T) {
	cases := map[string]bool{
		"Relevant":     true,
		"NOT RELEVANT": true,
		"irrelevant":   true,
		"POSITIVE":     false,
		"":             false,
	}
	for label, want := range cases {
		if got := RelevanceFromLabel(label).IsRelevant; got != want {
			t.Fatalf("RelevanceFromLabel(%q) = %v, want %v", label, got, want)
		}
	}
}

func TestViolationJSONOmitsAbsentFields(t *testing.T) {
	clause := "A"
	raw, err := json.Marshal([]Violation{{Clause: &clause}, NewViolation("B", "")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"clause":"A"},{"clause":"B","description":""}]`
	if string(raw) != want {
		t.Fatalf("unexpected json: %s", raw)
	}
}

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(ErrGeneration, "generate", cause)
	if !IsKind(err, ErrGeneration) || !errors.Is(err, cause) {
		t.Fatalf("expected kind and cause in chain, got %v", err)
	}
	if WrapError(ErrGeneration, "generate", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}

func TestClientMessageHidesCauses(t *testing.T) {
	if got := ClientMessage(ErrNoFiles); got != MessageNoFiles {
		t.Fatalf("unexpected no-files message %q", got)
	}
	notRelevant := WrapError(ErrNotRelevant, "check relevance", errors.New(`label="Irrelevant"`))
	if got := ClientMessage(notRelevant); got != MessageNotRelevant {
		t.Fatalf("unexpected not-relevant message %q", got)
	}
	internal := WrapError(ErrGeneration, "generate", errors.New("dial tcp 10.0.0.1:11434: refused"))
	if got := ClientMessage(internal); got != MessageAnalysisFailed {
		t.Fatalf("expected generic message, got %q", got)
	}
}
