package brain

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/isidman/gurukukomi/internal/memory"
	"github.com/isidman/gurukukomi/internal/research"
	"github.com/isidman/gurukukomi/internal/search"
)

type fakeProvider struct {
	results []search.ProviderResult
	err     error
	queries []string
}

func (p *fakeProvider) Search(_ context.Context, query string, _ int) ([]search.ProviderResult, error) {
	p.queries = append(p.queries, query)
	return p.results, p.err
}

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func newResearchStore(t *testing.T) *research.Store {
	t.Helper()
	s, err := research.NewStore(filepath.Join(t.TempDir(), "research.db"))
	if err != nil {
		t.Fatalf("open research store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestThinkGreeting(t *testing.T) {
	b := New(Options{Rand: testRand()})
	reply := b.Think(context.Background(), "cli:local", "hello")
	found := false
	for _, want := range greetingResponses {
		if reply == want {
			found = true
		}
	}
	if !found {
		t.Errorf("reply %q not drawn from the greeting pool", reply)
	}
}

func TestThinkFAQ(t *testing.T) {
	b := New(Options{Rand: testRand()})
	reply := b.Think(context.Background(), "cli:local", "who are you")
	found := false
	for _, want := range faqEntries[0].responses {
		if reply == want {
			found = true
		}
	}
	if !found {
		t.Errorf("reply %q not drawn from the identity FAQ pool", reply)
	}
}

func TestThinkDegradesWithoutProvider(t *testing.T) {
	b := New(Options{Rand: testRand()})
	reply := b.Think(context.Background(), "cli:local", "tell me about rust ownership")
	if reply == "" {
		t.Fatal("degraded brain returned empty reply")
	}
	if b.PendingSave("cli:local") {
		t.Error("no search ran, nothing should be pending")
	}
}

func TestThinkLiveSearchAndSaveFlow(t *testing.T) {
	provider := &fakeProvider{results: []search.ProviderResult{
		{Title: "Ownership - The Rust Book", URL: "https://doc.rust-lang.org/book/ch04.html", Snippet: "Ownership is a set of rules that governs how a Rust program manages memory and resources safely."},
		{Title: "Rust by Example", URL: "https://doc.rust-lang.org/rust-by-example/", Snippet: "The borrow checker includes rules such as one mutable reference at a time, which provides memory safety."},
	}}
	store := newResearchStore(t)
	b := New(Options{Research: store, Provider: provider, Rand: testRand()})

	session := "cli:local"
	reply := b.Think(context.Background(), session, "Tell me about rust ownership")
	if !strings.Contains(reply, "Would you like me to save this research") {
		t.Fatalf("live search reply missing save prompt:\n%s", reply)
	}
	if !b.PendingSave(session) {
		t.Fatal("expected a pending save after a live search")
	}
	if len(provider.queries) != 3 {
		t.Errorf("provider saw %d queries, want 3", len(provider.queries))
	}

	answer := b.ProcessSaveConsent(session, "yes please")
	if !strings.Contains(answer, "saved the research") {
		t.Errorf("grant reply = %q", answer)
	}
	if b.PendingSave(session) {
		t.Error("pending save not cleared after terminal outcome")
	}

	saved, err := store.FindSaved("rust ownership")
	if err != nil {
		t.Fatalf("FindSaved: %v", err)
	}
	if saved == nil {
		t.Fatal("granted research not persisted")
	}
}

func TestProcessSaveConsentUnclearKeepsPending(t *testing.T) {
	provider := &fakeProvider{results: []search.ProviderResult{
		{Title: "Go scheduler", URL: "https://go.dev/doc", Snippet: "The scheduler is a work-stealing design that provides fair goroutine execution across threads."},
	}}
	store := newResearchStore(t)
	b := New(Options{Research: store, Provider: provider, Rand: testRand()})

	session := "cli:local"
	b.Think(context.Background(), session, "tell me about the go scheduler")
	reply := b.ProcessSaveConsent(session, "maybe later")
	if !strings.Contains(reply, "not sure") {
		t.Errorf("unclear reply = %q", reply)
	}
	if !b.PendingSave(session) {
		t.Error("unclear answer must keep the save pending")
	}
}

func TestThinkCacheHit(t *testing.T) {
	provider := &fakeProvider{results: []search.ProviderResult{
		{Title: "Ownership", URL: "https://doc.rust-lang.org/book/", Snippet: "Ownership is a set of rules that governs memory and provides safety without a garbage collector at runtime."},
	}}
	store := newResearchStore(t)
	b := New(Options{Research: store, Provider: provider, Rand: testRand()})

	session := "cli:local"
	b.Think(context.Background(), session, "Tell me about rust ownership")
	b.ProcessSaveConsent(session, "yes")

	provider.queries = nil
	reply := b.Think(context.Background(), session, "Tell me about rust ownership")
	if len(provider.queries) != 0 {
		t.Errorf("cache hit still queried the provider %d times", len(provider.queries))
	}
	if !strings.Contains(reply, "rust ownership") {
		t.Errorf("cached reply does not mention the topic:\n%s", reply)
	}
	if b.PendingSave(session) {
		t.Error("cache hit must not create a pending save")
	}
}

func TestRememberAndForgetFlow(t *testing.T) {
	store := newMemoryStore(t)
	b := New(Options{Memory: store, Rand: testRand()})
	session := "cli:local"

	prompt := b.Think(context.Background(), session, "remember favorite color: blue")
	if !strings.Contains(prompt, "favorite color") {
		t.Fatalf("consent prompt = %q", prompt)
	}
	if !b.PendingMemory(session) {
		t.Fatal("expected pending memory consent")
	}

	reply := b.ProcessMemoryConsent(session, "yes")
	if b.PendingMemory(session) {
		t.Error("pending memory not cleared")
	}
	if reply == "" {
		t.Error("empty grant reply")
	}

	memories, err := store.Memories(session, 0)
	if err != nil {
		t.Fatalf("Memories: %v", err)
	}
	if len(memories) != 1 || memories[0].Key != "favorite color" {
		t.Fatalf("stored memories = %+v", memories)
	}

	forgot := b.Think(context.Background(), session, "forget favorite color")
	if !strings.Contains(forgot, "forgotten") {
		t.Errorf("forget reply = %q", forgot)
	}
	again := b.Think(context.Background(), session, "forget favorite color")
	if !strings.Contains(again, "don't have anything") {
		t.Errorf("second forget reply = %q", again)
	}
}

func TestRememberBadFormat(t *testing.T) {
	store := newMemoryStore(t)
	b := New(Options{Memory: store, Rand: testRand()})
	reply := b.Think(context.Background(), "cli:local", "remember my birthday")
	if !strings.Contains(reply, "remember favorite color: blue") {
		t.Errorf("format hint missing: %q", reply)
	}
	if b.PendingMemory("cli:local") {
		t.Error("malformed remember must not create pending consent")
	}
}

func TestConversationCount(t *testing.T) {
	store := newMemoryStore(t)
	b := New(Options{Memory: store, Rand: testRand()})
	session := "cli:local"
	b.Think(context.Background(), session, "hello")
	b.Think(context.Background(), session, "hello again")
	if got := b.ConversationCount(session); got != 2 {
		t.Errorf("ConversationCount = %d, want 2", got)
	}
}

func TestForgetResearchCommand(t *testing.T) {
	provider := &fakeProvider{results: []search.ProviderResult{
		{Title: "Ownership", URL: "https://doc.rust-lang.org/book/", Snippet: "Ownership is a set of rules that governs memory."},
	}}
	store := newResearchStore(t)
	b := New(Options{Research: store, Provider: provider, Rand: testRand()})

	session := "cli:local"
	b.Think(context.Background(), session, "Tell me about rust ownership")
	b.ProcessSaveConsent(session, "yes")

	reply := b.Think(context.Background(), session, "forget research rust ownership")
	if !strings.Contains(reply, "cleared my saved research") {
		t.Errorf("reply = %q", reply)
	}
	if rec, _ := store.FindSaved("rust ownership"); rec != nil {
		t.Errorf("research survived deletion: %+v", rec)
	}

	reply = b.Think(context.Background(), session, "forget research rust ownership")
	if !strings.Contains(reply, "don't have any saved research") {
		t.Errorf("reply after deletion = %q", reply)
	}
}

func TestRememberKeepsOriginalCasing(t *testing.T) {
	store := newMemoryStore(t)
	b := New(Options{Memory: store, Rand: testRand()})

	session := "cli:local"
	prompt := b.Think(context.Background(), session, "Remember Name: Alice")
	if !strings.Contains(prompt, `"Alice"`) {
		t.Fatalf("consent prompt lost casing: %q", prompt)
	}
	b.ProcessMemoryConsent(session, "yes")

	mems, err := store.Memories(session, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(mems) != 1 || mems[0].Key != "Name" || mems[0].Value != "Alice" {
		t.Errorf("stored memory = %+v, want Name: Alice", mems)
	}
}
