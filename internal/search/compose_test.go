package search

import (
	"math/rand"
	"strings"
	"testing"
)

func newTestComposer() *Composer {
	return NewComposer(rand.New(rand.NewSource(11)), 5)
}

func TestComposeFullAnalysis(t *testing.T) {
	analysis := &Analysis{
		TotalSources:   4,
		KeyInformation: []string{"Go ships a race detector.", "Goroutines are cheap."},
		Sources: []Result{
			{Title: "Go Blog", URL: "https://go.dev/blog", Snippet: "x"},
			{Title: "Go Docs", URL: "https://go.dev/doc", Snippet: "y"},
		},
		ConsolidatedFacts: ConsolidatedFacts{
			Definitions: []string{"Go is a compiled language."},
			Features:    []string{"Includes a garbage collector.", "Includes a scheduler.", "Includes modules."},
		},
	}

	out := newTestComposer().Compose(analysis)
	if !strings.Contains(out, "4 sources") {
		t.Errorf("intro missing source count:\n%s", out)
	}
	if !strings.Contains(out, "**Definition:**") || !strings.Contains(out, "- Go is a compiled language.") {
		t.Errorf("definition section missing:\n%s", out)
	}
	// Features are capped at two entries.
	if strings.Contains(out, "Includes modules.") {
		t.Errorf("third feature should be dropped:\n%s", out)
	}
	if !strings.Contains(out, "**Key Points:**") || !strings.Contains(out, "1. Go ships a race detector.") {
		t.Errorf("key points missing:\n%s", out)
	}
	if !strings.Contains(out, "1. [Go Blog](https://go.dev/blog)") {
		t.Errorf("sources missing:\n%s", out)
	}
}

func TestComposeEmptySectionsDropped(t *testing.T) {
	out := newTestComposer().Compose(&Analysis{TotalSources: 0})
	if strings.Contains(out, "**Key Points:**") || strings.Contains(out, "**Sources:**") {
		t.Errorf("empty sections rendered:\n%s", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("blank section left a gap:\n%s", out)
	}
}

func TestSourcesDedupedAndCapped(t *testing.T) {
	sources := []Result{
		{Title: "A", URL: "https://a.example"},
		{Title: "A again", URL: "https://a.example"},
		{Title: "B", URL: "https://b.example"},
		{Title: "C", URL: "https://c.example"},
		{Title: "D", URL: "https://d.example"},
		{Title: "E", URL: "https://e.example"},
		{Title: "F", URL: "https://f.example"},
	}

	out := newTestComposer().sources(sources)
	if strings.Contains(out, "A again") {
		t.Errorf("duplicate URL kept:\n%s", out)
	}
	if !strings.Contains(out, "5. [E]") {
		t.Errorf("expected fifth entry E:\n%s", out)
	}
	if strings.Contains(out, "[F]") {
		t.Errorf("sixth unique source rendered past the cap:\n%s", out)
	}
}

func TestComposeSaved(t *testing.T) {
	out := newTestComposer().ComposeSaved(
		"go concurrency",
		"Goroutines are cheap. Channels synchronize.",
		[]string{"Select multiplexes channels."},
		[]Result{{Title: "Go Blog", URL: "https://go.dev/blog"}},
	)
	if !strings.Contains(out, `I remember researching "go concurrency" before!`) {
		t.Errorf("missing cache-hit intro:\n%s", out)
	}
	if !strings.Contains(out, "Goroutines are cheap.") {
		t.Errorf("missing summary:\n%s", out)
	}
	if !strings.Contains(out, "1. Select multiplexes channels.") {
		t.Errorf("missing key points:\n%s", out)
	}
	if !strings.Contains(out, "fresh search") {
		t.Errorf("missing refresh offer:\n%s", out)
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip = %q", got)
	}
	if got := clip("exactly-ten", 11); got != "exactly-ten" {
		t.Errorf("clip = %q", got)
	}
	if got := clip("a long title that overflows", 6); got != "a long..." {
		t.Errorf("clip = %q", got)
	}
}
