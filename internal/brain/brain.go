// Package brain runs a full conversational turn: routing, web research,
// consent follow-ups and personality styling, degrading gracefully when any
// subsystem is absent.
package brain

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/isidman/gurukukomi/internal/consent"
	"github.com/isidman/gurukukomi/internal/memory"
	"github.com/isidman/gurukukomi/internal/persona"
	"github.com/isidman/gurukukomi/internal/research"
	"github.com/isidman/gurukukomi/internal/router"
	"github.com/isidman/gurukukomi/internal/search"
)

// Options wires the brain's collaborators. Every field may be nil; the brain
// answers conversationally with whatever is left.
type Options struct {
	Memory   *memory.Store
	Research *research.Store
	Persona  *persona.Engine
	Provider search.Provider

	MaxQueries      int
	ResultsPerQuery int
	MaxSources      int

	Rand *rand.Rand
}

type pendingMemory struct {
	Key   string
	Value string
}

type Brain struct {
	mu sync.Mutex

	memory       *memory.Store
	research     *research.Store
	persona      *persona.Engine
	router       *router.Router
	orchestrator *search.Orchestrator
	composer     *search.Composer
	rng          *rand.Rand

	pendingSaves    map[string]*research.SaveInput
	pendingMemories map[string]*pendingMemory
}

func New(opts Options) *Brain {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var cache router.Finder
	if opts.Research != nil {
		cache = opts.Research
	}

	b := &Brain{
		memory:          opts.Memory,
		research:        opts.Research,
		persona:         opts.Persona,
		router:          router.New(cache, opts.MaxQueries),
		composer:        search.NewComposer(rng, opts.MaxSources),
		rng:             rng,
		pendingSaves:    make(map[string]*research.SaveInput),
		pendingMemories: make(map[string]*pendingMemory),
	}
	if opts.Provider != nil {
		b.orchestrator = search.NewOrchestrator(opts.Provider, opts.ResultsPerQuery)
	}
	return b
}

// Think processes one user message and returns the reply. Callers must drain
// any pending consent follow-up (PendingSave / PendingMemory) before feeding
// the next message here.
func (b *Brain) Think(ctx context.Context, session, message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))

	reply, ok := b.handleMemoryCommand(session, message, lower)
	if !ok {
		reply = b.respond(ctx, session, message, lower)
	}

	if b.memory != nil {
		if err := b.memory.StoreConversation(session, message, reply); err != nil {
			log.Printf("[brain] store conversation: %v", err)
		}
	}
	return reply
}

func (b *Brain) respond(ctx context.Context, session, message, lower string) string {
	decision := b.router.Route(message)

	switch decision.Kind {
	case router.CacheHit:
		b.evolve(persona.TagCacheHit)
		saved := decision.Saved
		return b.composer.ComposeSaved(saved.Topic, saved.Summary, saved.KeyFacts, toSearchResults(saved.Sources))

	case router.LiveSearch:
		if b.orchestrator == nil {
			break
		}
		analysis := b.orchestrator.SearchAndAnalyze(ctx, decision.Queries)
		if analysis.TotalSources == 0 {
			b.evolve(persona.TagQuestionAsked)
			return "I tried to look that up but came back empty-handed. Could you rephrase it, or should we just talk it through?"
		}
		b.evolve(persona.TagSearchCompleted)
		reply := b.composer.Compose(analysis)
		reply += b.offerSave(session, decision.Queries[0], analysis)
		return reply
	}

	return b.fallbackResponse(message, lower)
}

// offerSave records the consent request and parks the payload until the next
// message from the same session resolves it.
func (b *Brain) offerSave(session, query string, analysis *search.Analysis) string {
	if b.research == nil {
		return ""
	}
	topic := research.DefaultTopic(query)
	prompt, err := b.research.AskToSave(query, topic, analysis.TotalSources)
	if err != nil {
		log.Printf("[brain] research consent request: %v", err)
		return ""
	}

	b.mu.Lock()
	b.pendingSaves[session] = &research.SaveInput{
		Query:    query,
		Topic:    topic,
		Raw:      analysis,
		KeyFacts: analysis.KeyInformation,
		Sources:  toResearchSources(analysis.Sources),
	}
	b.mu.Unlock()

	return "\n\n" + prompt
}

// PendingSave reports whether the session owes a yes/no answer for saving
// research.
func (b *Brain) PendingSave(session string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingSaves[session] != nil
}

// ProcessSaveConsent resolves the parked save. Terminal outcomes clear the
// pending state; an unclear answer keeps it and re-prompts.
func (b *Brain) ProcessSaveConsent(session, response string) string {
	b.mu.Lock()
	pending := b.pendingSaves[session]
	b.mu.Unlock()
	if pending == nil || b.research == nil {
		return b.fallbackResponse(response, strings.ToLower(response))
	}

	reply, outcome, err := b.research.ProcessSaveConsent(response, *pending)
	if err != nil {
		log.Printf("[brain] research consent: %v", err)
		return "Something went wrong while handling that, sorry! Let's keep chatting though."
	}
	if outcome != consent.OutcomeUnclear {
		b.mu.Lock()
		delete(b.pendingSaves, session)
		b.mu.Unlock()
	}
	if outcome == consent.OutcomeGranted {
		b.evolve(persona.TagResearchSaved)
	}
	return reply
}

// PendingMemory reports whether the session owes a yes/no answer for an
// explicit memory.
func (b *Brain) PendingMemory(session string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingMemories[session] != nil
}

func (b *Brain) ProcessMemoryConsent(session, response string) string {
	b.mu.Lock()
	pending := b.pendingMemories[session]
	b.mu.Unlock()
	if pending == nil || b.memory == nil {
		return b.fallbackResponse(response, strings.ToLower(response))
	}

	reply, outcome, err := b.memory.ProcessConsent(session, response, pending.Key, pending.Value, "explicit")
	if err != nil {
		log.Printf("[brain] memory consent: %v", err)
		return "Something went wrong while handling that, sorry! Let's keep chatting though."
	}
	switch outcome {
	case consent.OutcomeGranted:
		b.evolve(persona.TagMemoryGranted)
	case consent.OutcomeDeclined:
		b.evolve(persona.TagMemoryDeclined)
	}
	if outcome != consent.OutcomeUnclear {
		b.mu.Lock()
		delete(b.pendingMemories, session)
		b.mu.Unlock()
	}
	return reply
}

// handleMemoryCommand intercepts "remember <key>: <value>",
// "forget research <topic>" and "forget <key>" messages. Returns ok=false
// when the message is none of them.
func (b *Brain) handleMemoryCommand(session, message, lower string) (string, bool) {
	if topic, found := strings.CutPrefix(lower, "forget research "); found && b.research != nil {
		topic = strings.TrimSpace(strings.TrimRight(topic, "?!. "))
		if topic == "" {
			return "", false
		}
		removed, err := b.research.Delete(topic)
		if err != nil {
			log.Printf("[brain] delete research: %v", err)
			return "I had trouble clearing that research, sorry!", true
		}
		if !removed {
			return fmt.Sprintf("I don't have any saved research about \"%s\".", topic), true
		}
		return fmt.Sprintf("Done! I've cleared my saved research about \"%s\".", topic), true
	}

	if b.memory == nil {
		return "", false
	}

	if strings.HasPrefix(lower, "remember ") {
		// The prefix match is case-folded but the fact keeps the user's
		// original casing.
		rest := strings.TrimSpace(message)[len("remember "):]
		key, value, hasColon := strings.Cut(rest, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !hasColon || key == "" || value == "" {
			return "If you want me to remember something, tell me like this: remember favorite color: blue", true
		}
		prompt, err := b.memory.AskToRemember(key, value)
		if err != nil {
			log.Printf("[brain] memory consent request: %v", err)
			return "I couldn't set that up right now, sorry! Want to try again in a bit?", true
		}
		b.mu.Lock()
		b.pendingMemories[session] = &pendingMemory{Key: key, Value: value}
		b.mu.Unlock()
		return prompt, true
	}

	if key, found := strings.CutPrefix(lower, "forget "); found {
		key = strings.TrimSpace(strings.TrimRight(key, "?!. "))
		if key == "" {
			return "", false
		}
		removed, err := b.memory.Forget(session, key)
		if err != nil {
			log.Printf("[brain] forget: %v", err)
			return "I had trouble forgetting that, sorry!", true
		}
		if !removed {
			return fmt.Sprintf("I don't have anything remembered about \"%s\".", key), true
		}
		return fmt.Sprintf("Done! I've forgotten what I knew about \"%s\".", key), true
	}

	return "", false
}

// fallbackResponse is the conversational path: FAQ first, then keyword
// pools, then the default pool, all finished with personality styling.
func (b *Brain) fallbackResponse(message, lower string) string {
	if reply, ok := b.checkFAQ(lower); ok {
		b.evolve(persona.TagQuestionAsked)
		return b.style(reply)
	}

	var pool []string
	if strings.Contains(message, "?") {
		pool = append(pool, questionResponses...)
		b.evolve(persona.TagQuestionAsked)
	}
	if containsAny(lower, learningWords) {
		pool = append(pool, learningResponses...)
		b.evolve(persona.TagDiscoveryShared)
	}
	if containsAny(lower, supportWords) {
		pool = append(pool, supportResponses...)
		b.evolve(persona.TagHelpRequested)
	}
	if containsAny(lower, greetingWords) {
		pool = append(pool, greetingResponses...)
		b.evolve(persona.TagGreeting)
	}
	if len(pool) == 0 {
		pool = defaultResponses
	}

	reply := pool[b.rng.Intn(len(pool))]
	return b.style(reply)
}

func (b *Brain) checkFAQ(lower string) (string, bool) {
	for _, entry := range faqEntries {
		if containsAny(lower, entry.triggers) {
			return entry.responses[b.rng.Intn(len(entry.responses))], true
		}
	}
	return "", false
}

// Introduce returns a first-contact greeting.
func (b *Brain) Introduce() string {
	return introductions[b.rng.Intn(len(introductions))]
}

// ConversationCount reports how many turns the session has stored.
func (b *Brain) ConversationCount(session string) int {
	if b.memory == nil {
		return 0
	}
	n, err := b.memory.ConversationCount(session)
	if err != nil {
		log.Printf("[brain] conversation count: %v", err)
		return 0
	}
	return n
}

func (b *Brain) style(reply string) string {
	if b.persona == nil {
		return reply
	}
	return b.persona.Style(reply)
}

func (b *Brain) evolve(tag string) {
	if b.persona != nil {
		b.persona.Evolve(tag)
	}
}

func toSearchResults(sources []research.Source) []search.Result {
	out := make([]search.Result, 0, len(sources))
	for _, s := range sources {
		out = append(out, search.Result{Title: s.Title, URL: s.URL, Snippet: s.Snippet})
	}
	return out
}

func toResearchSources(results []search.Result) []research.Source {
	out := make([]research.Source, 0, len(results))
	for _, r := range results {
		out = append(out, research.Source{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
