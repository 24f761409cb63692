// Package router makes the top-level per-message decision: answer
// conversationally, answer from saved research, or go to the web.
package router

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/isidman/gurukukomi/internal/research"
)

const (
	ComplexitySimple   = "simple"
	ComplexityDetailed = "detailed"

	defaultMaxQueries = 3
	maxKeyConcepts    = 5
	minConceptLength  = 4
)

// QueryAnalysis is produced fresh per message and never mutated afterwards.
type QueryAnalysis struct {
	Intent        string
	Complexity    string
	NeedsSearch   bool
	SearchQueries []string
	KeyConcepts   []string
}

type DecisionKind int

const (
	Conversational DecisionKind = iota
	CacheHit
	LiveSearch
)

// Decision is the routing outcome for one message.
type Decision struct {
	Kind     DecisionKind
	Analysis QueryAnalysis
	Saved    *research.SavedResearch // set for CacheHit
	Queries  []string                // set for LiveSearch
}

// intentCategories is an ordered first-match table; list order is the
// tie-break and must stay stable for reproducible classification.
var intentCategories = []struct {
	name     string
	keywords []string
}{
	{"general", []string{"what", "how", "why", "when", "where"}},
	{"technical", []string{"code", "programming", "software", "algorithm", "api"}},
	{"educational", []string{"learn", "study", "explain", "tutorial", "guide"}},
	{"current_events", []string{"news", "recent", "latest", "current", "today"}},
	{"definition", []string{"define", "meaning", "what is", "what are"}},
	{"comparison", []string{"vs", "versus", "compare", "difference", "better"}},
}

var searchTriggers = []string{
	"what is", "who is", "when did", "how does", "why does",
	"latest", "current", "recent", "news about", "information about",
	"explain", "tell me about", "research", "find out", "look up",
}

var complexityTriggers = []string{"explain", "analyze", "compare", "detailed", "comprehensive", "advanced"}

// questionPrefixes are stripped from the front of the message when deriving
// the base search query.
var questionPrefixes = []string{
	"what is", "what are", "who is", "tell me about", "explain", "how does", "why does",
}

var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "and": {}, "a": {},
	"an": {}, "as": {}, "are": {}, "was": {}, "were": {}, "been": {}, "be": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {}, "what": {}, "how": {}, "why": {},
	"when": {}, "where": {}, "who": {},
}

var wordPattern = regexp.MustCompile(`[a-z0-9_]+`)

// Finder is the research-cache lookup collaborator. The lookup itself bumps
// the record's access count; Route must not count again.
type Finder interface {
	FindSaved(topicQuery string) (*research.SavedResearch, error)
}

type Router struct {
	cache      Finder
	maxQueries int
}

func New(cache Finder, maxQueries int) *Router {
	if maxQueries <= 0 {
		maxQueries = defaultMaxQueries
	}
	return &Router{cache: cache, maxQueries: maxQueries}
}

// Analyze classifies one message. Ordered first-match on the intent table,
// substring match on the search trigger list, and position-based key-concept
// truncation.
func (r *Router) Analyze(message string) QueryAnalysis {
	lower := strings.ToLower(message)

	analysis := QueryAnalysis{
		Intent:     "general",
		Complexity: ComplexitySimple,
	}

	for _, category := range intentCategories {
		if containsAny(lower, category.keywords) {
			analysis.Intent = category.name
			break
		}
	}

	if containsAny(lower, searchTriggers) {
		analysis.NeedsSearch = true
		analysis.SearchQueries = r.generateQueries(message)
	}

	if containsAny(lower, complexityTriggers) {
		analysis.Complexity = ComplexityDetailed
	}

	analysis.KeyConcepts = extractKeyConcepts(message)
	return analysis
}

// Route analyzes the message and decides the turn's shape. Saved research is
// consulted before any live search; a hit short-circuits.
func (r *Router) Route(message string) Decision {
	analysis := r.Analyze(message)
	decision := Decision{Kind: Conversational, Analysis: analysis}

	if !analysis.NeedsSearch || len(analysis.SearchQueries) == 0 {
		return decision
	}

	if r.cache != nil {
		saved, err := r.cache.FindSaved(analysis.SearchQueries[0])
		if err != nil {
			log.Printf("[router] research cache lookup failed: %v", err)
		} else if saved != nil {
			decision.Kind = CacheHit
			decision.Saved = saved
			return decision
		}
	}

	decision.Kind = LiveSearch
	decision.Queries = analysis.SearchQueries
	return decision
}

// generateQueries strips a leading question phrase and trailing punctuation
// from the case-folded message, then adds fixed variations for coverage.
func (r *Router) generateQueries(message string) []string {
	base := strings.ToLower(strings.TrimSpace(message))
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(base, prefix) {
			base = strings.TrimSpace(strings.TrimPrefix(base, prefix))
			break
		}
	}
	base = strings.TrimRight(base, "?!. ")
	if base == "" {
		return nil
	}

	queries := []string{base}
	if len(base) > 3 {
		queries = append(queries, fmt.Sprintf("%s explanation", base), fmt.Sprintf("%s guide", base))
	}
	if len(queries) > r.maxQueries {
		queries = queries[:r.maxQueries]
	}
	return queries
}

// extractKeyConcepts keeps the first five content words in original order.
// This is a positional truncation, not a frequency ranking.
func extractKeyConcepts(message string) []string {
	words := wordPattern.FindAllString(strings.ToLower(message), -1)
	concepts := make([]string, 0, maxKeyConcepts)
	for _, word := range words {
		if len(word) < minConceptLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		concepts = append(concepts, word)
		if len(concepts) >= maxKeyConcepts {
			break
		}
	}
	return concepts
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
