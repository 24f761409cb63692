package research

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/isidman/gurukukomi/internal/consent"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "research.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleInput() SaveInput {
	return SaveInput{
		Query:    "go concurrency",
		Topic:    "go concurrency",
		Raw:      map[string]any{"original_question": "tell me about go concurrency"},
		KeyFacts: []string{"Goroutines are lightweight threads managed by the Go runtime.", "Channels let goroutines communicate safely."},
		Sources: []Source{
			{Title: "Go Blog", URL: "https://go.dev/blog/concurrency", Snippet: "Concurrency patterns."},
			{Title: "Effective Go", URL: "https://go.dev/doc/effective_go", Snippet: "Share by communicating."},
		},
	}
}

func mustSave(t *testing.T, s *Store, input SaveInput) {
	t.Helper()
	_, outcome, err := s.ProcessSaveConsent("yes", input)
	if err != nil {
		t.Fatalf("ProcessSaveConsent: %v", err)
	}
	if outcome != consent.OutcomeGranted {
		t.Fatalf("outcome = %v", outcome)
	}
}

func TestDefaultTopic(t *testing.T) {
	if got := DefaultTopic("  short query  "); got != "short query" {
		t.Errorf("DefaultTopic = %q", got)
	}
	long := strings.Repeat("x", 80)
	got := DefaultTopic(long)
	if got != strings.Repeat("x", 50)+"..." {
		t.Errorf("clipped topic = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	input := sampleInput()
	want := input.KeyFacts[0] + ". " + input.KeyFacts[1]
	if got := Summarize(input); got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}

	// A third fact is ignored, long facts are clipped to 100 runes.
	input.KeyFacts = []string{strings.Repeat("a", 150), "second", "third"}
	got := Summarize(input)
	if got != strings.Repeat("a", 100)+".... second" {
		t.Errorf("Summarize clipped = %q", got)
	}

	input.KeyFacts = nil
	if got := Summarize(input); got != "Research from 2 sources with comprehensive information." {
		t.Errorf("Summarize fallback = %q", got)
	}
}

func TestAskToSaveLogsRequest(t *testing.T) {
	s := newTestStore(t)
	prompt, err := s.AskToSave("go concurrency", "", 3)
	if err != nil {
		t.Fatalf("AskToSave: %v", err)
	}
	if !strings.Contains(prompt, `"go concurrency"`) || !strings.Contains(prompt, "3 sources") {
		t.Errorf("prompt = %q", prompt)
	}
	if !strings.Contains(prompt, "completely your choice") {
		t.Errorf("prompt missing opt-out note: %q", prompt)
	}
}

func TestProcessSaveConsentDeclined(t *testing.T) {
	s := newTestStore(t)
	reply, outcome, err := s.ProcessSaveConsent("nope", sampleInput())
	if err != nil {
		t.Fatalf("ProcessSaveConsent: %v", err)
	}
	if outcome != consent.OutcomeDeclined {
		t.Fatalf("outcome = %v", outcome)
	}
	if !strings.Contains(reply, "current conversation only") {
		t.Errorf("reply = %q", reply)
	}
	if rec, _ := s.FindSaved("go concurrency"); rec != nil {
		t.Errorf("declined save was persisted: %+v", rec)
	}
}

func TestProcessSaveConsentUnclear(t *testing.T) {
	s := newTestStore(t)
	reply, outcome, err := s.ProcessSaveConsent("whatever", sampleInput())
	if err != nil {
		t.Fatalf("ProcessSaveConsent: %v", err)
	}
	if outcome != consent.OutcomeUnclear {
		t.Fatalf("outcome = %v", outcome)
	}
	if !strings.Contains(reply, "not sure") {
		t.Errorf("reply = %q", reply)
	}
}

func TestFindSavedBumpsAccessCount(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, sampleInput())

	rec, err := s.FindSaved("go concurrency")
	if err != nil {
		t.Fatalf("FindSaved: %v", err)
	}
	if rec == nil {
		t.Fatal("FindSaved returned nil")
	}
	if rec.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", rec.AccessCount)
	}
	if rec.LastAccessed == "" {
		t.Error("LastAccessed not set")
	}
	if len(rec.KeyFacts) != 2 || len(rec.Sources) != 2 {
		t.Errorf("facts=%d sources=%d", len(rec.KeyFacts), len(rec.Sources))
	}

	rec, err = s.FindSaved("go concurrency")
	if err != nil {
		t.Fatal(err)
	}
	if rec.AccessCount != 2 {
		t.Errorf("AccessCount after second lookup = %d, want 2", rec.AccessCount)
	}
}

func TestFindSavedSubstringMatch(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, sampleInput())

	// Matches by topic substring.
	if rec, _ := s.FindSaved("concurrency"); rec == nil {
		t.Error("topic substring lookup missed")
	}
	// Matches by query substring too.
	input := sampleInput()
	input.Topic = "parallel programming"
	mustSave(t, s, input)
	rec, err := s.FindSaved("parallel")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Topic != "parallel programming" {
		t.Errorf("rec = %+v", rec)
	}

	if rec, _ := s.FindSaved("quantum chromodynamics"); rec != nil {
		t.Errorf("unexpected match: %+v", rec)
	}
	if rec, _ := s.FindSaved("   "); rec != nil {
		t.Error("blank lookup matched")
	}
}

func TestSavedTopicsAndStats(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, sampleInput())
	second := sampleInput()
	second.Query = "go channels"
	mustSave(t, s, second)
	third := sampleInput()
	third.Topic = "rust ownership"
	third.Query = "rust ownership"
	mustSave(t, s, third)

	if _, err := s.FindSaved("rust"); err != nil {
		t.Fatal(err)
	}

	topics, err := s.SavedTopics()
	if err != nil {
		t.Fatalf("SavedTopics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("topics = %+v", topics)
	}
	byName := map[string]TopicSummary{}
	for _, topic := range topics {
		byName[topic.Topic] = topic
	}
	if byName["go concurrency"].SearchCount != 2 {
		t.Errorf("go concurrency count = %d", byName["go concurrency"].SearchCount)
	}
	if byName["rust ownership"].TotalAccess != 1 {
		t.Errorf("rust access = %d", byName["rust ownership"].TotalAccess)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.SavedSearches != 3 || st.UniqueTopics != 2 || st.TotalAccessCount != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, sampleInput())

	found, err := s.Delete("concurrency")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !found {
		t.Fatal("Delete found nothing")
	}
	if rec, _ := s.FindSaved("go concurrency"); rec != nil {
		t.Errorf("record survived delete: %+v", rec)
	}
	if found, _ := s.Delete("concurrency"); found {
		t.Error("second delete reported a match")
	}
}
