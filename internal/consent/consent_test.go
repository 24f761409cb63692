package consent

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		response string
		want     Outcome
	}{
		{"yes", OutcomeGranted},
		{"Yes please!", OutcomeGranted},
		{"sure, save it", OutcomeGranted},
		{"okay", OutcomeGranted},
		{"please remember that", OutcomeGranted},
		{"no", OutcomeDeclined},
		{"nope", OutcomeDeclined},
		{"don't do that", OutcomeDeclined},
		{"never", OutcomeDeclined},
		{"maybe", OutcomeUnclear},
		{"hmm", OutcomeUnclear},
		{"", OutcomeUnclear},
		// Affirmative keywords win over negative ones.
		{"no wait, yes save it", OutcomeGranted},
	}
	for _, tt := range tests {
		if got := Classify(tt.response); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.response, got, tt.want)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeGranted.String() != "granted" || OutcomeDeclined.String() != "declined" || OutcomeUnclear.String() != "unclear" {
		t.Error("Outcome.String mismatch")
	}
}

type logEntry struct {
	action   Action
	subject  string
	response string
}

type fakeRecorder struct {
	entries []logEntry
	err     error
}

func (r *fakeRecorder) RecordConsent(action Action, subject, userResponse string) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, logEntry{action, subject, userResponse})
	return nil
}

func TestGate_RequestLogsImmediately(t *testing.T) {
	rec := &fakeRecorder{}
	g := NewGate(rec)

	if err := g.Request("favorite color: blue"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(rec.entries) != 1 || rec.entries[0].action != ActionRequested {
		t.Fatalf("entries = %+v, want one requested", rec.entries)
	}
}

func TestGate_ResolveGrantedPersistsThenLogs(t *testing.T) {
	rec := &fakeRecorder{}
	g := NewGate(rec)

	persisted := false
	outcome, err := g.Resolve("subject", "yes", func() error {
		persisted = true
		if len(rec.entries) != 0 {
			t.Error("granted log written before persist")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeGranted || !persisted {
		t.Errorf("outcome = %v, persisted = %v", outcome, persisted)
	}
	if len(rec.entries) != 1 || rec.entries[0].action != ActionGranted {
		t.Errorf("entries = %+v", rec.entries)
	}
}

func TestGate_ResolveGrantedPersistFailureSkipsLog(t *testing.T) {
	rec := &fakeRecorder{}
	g := NewGate(rec)

	_, err := g.Resolve("subject", "yes", func() error {
		return errors.New("disk full")
	})
	if err == nil {
		t.Fatal("expected persist error")
	}
	if len(rec.entries) != 0 {
		t.Errorf("granted logged despite failed persist: %+v", rec.entries)
	}
}

func TestGate_ResolveDeclinedLogsOnly(t *testing.T) {
	rec := &fakeRecorder{}
	g := NewGate(rec)

	outcome, err := g.Resolve("subject", "no thanks", func() error {
		t.Error("persist must not run for a declined answer")
		return nil
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeDeclined {
		t.Errorf("outcome = %v", outcome)
	}
	if len(rec.entries) != 1 || rec.entries[0].action != ActionDeclined {
		t.Errorf("entries = %+v", rec.entries)
	}
}

func TestGate_ResolveUnclearTouchesNothing(t *testing.T) {
	rec := &fakeRecorder{}
	g := NewGate(rec)

	outcome, err := g.Resolve("subject", "maybe later?", func() error {
		t.Error("persist must not run for an unclear answer")
		return nil
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome != OutcomeUnclear {
		t.Errorf("outcome = %v", outcome)
	}
	if len(rec.entries) != 0 {
		t.Errorf("entries = %+v, want none", rec.entries)
	}
}
