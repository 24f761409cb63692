// Package search issues web queries through an external provider and distils
// the raw results into structured facts and a composed answer.
package search

import (
	"context"
	"log"
	"regexp"
	"strings"
)

const (
	keyInformationCap  = 10
	minSentenceLength  = 30
	factCategoryCap    = 3
	defaultPerQueryCap = 3
)

// ProviderResult is one raw hit from the search provider.
type ProviderResult struct {
	Title   string
	URL     string
	Snippet string
}

// Provider is the external full-text search collaborator. Implementations
// must surface failures as errors; the orchestrator recovers per query.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]ProviderResult, error)
}

// Result is a provider hit annotated with the query that produced it.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Query   string `json:"query"`
}

// ConsolidatedFacts buckets snippets by what they look like. One snippet may
// land in several buckets; each bucket is capped independently.
type ConsolidatedFacts struct {
	Definitions []string `json:"definitions"`
	Features    []string `json:"features"`
	Benefits    []string `json:"benefits"`
	Examples    []string `json:"examples"`
	Statistics  []string `json:"statistics"`
}

// Analysis is the aggregated outcome of one multi-query search run.
type Analysis struct {
	TotalSources      int               `json:"total_sources"`
	KeyInformation    []string          `json:"key_information"`
	Sources           []Result          `json:"sources"`
	ConsolidatedFacts ConsolidatedFacts `json:"consolidated_facts"`
}

var (
	informativeVerbs = []string{"is", "are", "can", "will", "provides", "offers", "includes"}

	definitionTriggers = []string{"is a", "refers to", "defined as", "means"}
	featureTriggers    = []string{"includes", "features", "consists of", "contains"}
	benefitTriggers    = []string{"benefits", "advantages", "helps", "improves"}
	exampleTriggers    = []string{"example", "such as", "including", "like"}

	statisticPattern = regexp.MustCompile(`\d+%|\d+,\d+|\$\d+`)
)

type Orchestrator struct {
	provider        Provider
	resultsPerQuery int
}

func NewOrchestrator(provider Provider, resultsPerQuery int) *Orchestrator {
	if resultsPerQuery <= 0 {
		resultsPerQuery = defaultPerQueryCap
	}
	return &Orchestrator{provider: provider, resultsPerQuery: resultsPerQuery}
}

// SearchAndAnalyze runs every query against the provider and aggregates what
// came back. A failed query contributes nothing; the rest still count.
func (o *Orchestrator) SearchAndAnalyze(ctx context.Context, queries []string) *Analysis {
	all := make([]Result, 0, len(queries)*o.resultsPerQuery)

	for _, query := range queries {
		hits, err := o.provider.Search(ctx, query, o.resultsPerQuery)
		if err != nil {
			log.Printf("[search] query %q failed: %v", query, err)
			continue
		}
		for _, hit := range hits {
			title := hit.Title
			if title == "" {
				title = "Unknown"
			}
			all = append(all, Result{
				Title:   title,
				URL:     hit.URL,
				Snippet: hit.Snippet,
				Query:   query,
			})
		}
	}

	return &Analysis{
		TotalSources:      len(all),
		KeyInformation:    extractKeyInformation(all),
		Sources:           all,
		ConsolidatedFacts: consolidateFacts(all),
	}
}

// extractKeyInformation keeps informative sentences: longer than 30 chars
// and carrying at least one informative verb. Result order, then sentence
// order, capped to 10 overall.
func extractKeyInformation(results []Result) []string {
	keyInfo := make([]string, 0, keyInformationCap)
	for _, result := range results {
		if result.Snippet == "" {
			continue
		}
		for _, sentence := range strings.Split(result.Snippet, ". ") {
			if len(sentence) <= minSentenceLength {
				continue
			}
			lower := strings.ToLower(sentence)
			if !containsAny(lower, informativeVerbs) {
				continue
			}
			keyInfo = append(keyInfo, strings.TrimSpace(sentence))
			if len(keyInfo) >= keyInformationCap {
				return keyInfo
			}
		}
	}
	return keyInfo
}

func consolidateFacts(results []Result) ConsolidatedFacts {
	var facts ConsolidatedFacts
	for _, result := range results {
		if result.Snippet == "" {
			continue
		}
		lower := strings.ToLower(result.Snippet)

		if containsAny(lower, definitionTriggers) {
			facts.Definitions = appendCapped(facts.Definitions, result.Snippet)
		}
		if containsAny(lower, featureTriggers) {
			facts.Features = appendCapped(facts.Features, result.Snippet)
		}
		if containsAny(lower, benefitTriggers) {
			facts.Benefits = appendCapped(facts.Benefits, result.Snippet)
		}
		if containsAny(lower, exampleTriggers) {
			facts.Examples = appendCapped(facts.Examples, result.Snippet)
		}
		if statisticPattern.MatchString(lower) {
			facts.Statistics = appendCapped(facts.Statistics, result.Snippet)
		}
	}
	return facts
}

func appendCapped(list []string, snippet string) []string {
	if len(list) >= factCategoryCap {
		return list
	}
	return append(list, snippet)
}

func containsAny(s string, triggers []string) bool {
	for _, t := range triggers {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
