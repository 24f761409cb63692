package search

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	maxDisplayedSources = 5
	maxKeyPoints        = 5
)

// Composer renders an Analysis into the final prose answer. The rand source
// is injected so tests can pin phrase selection.
type Composer struct {
	rng        *rand.Rand
	maxSources int
}

func NewComposer(rng *rand.Rand, maxSources int) *Composer {
	if maxSources <= 0 {
		maxSources = maxDisplayedSources
	}
	return &Composer{rng: rng, maxSources: maxSources}
}

// Compose assembles intro, main content, key points, sources and conclusion.
// Empty sections contribute nothing; the rest are joined by a blank line.
func (c *Composer) Compose(analysis *Analysis) string {
	sections := []string{
		c.intro(analysis.TotalSources),
		c.mainContent(analysis.ConsolidatedFacts),
		c.keyPoints(analysis.KeyInformation),
		c.sources(analysis.Sources),
		c.conclusion(),
	}
	return joinSections(sections)
}

// ComposeSaved renders a cache-hit answer from previously saved research.
func (c *Composer) ComposeSaved(topic, summary string, keyFacts []string, sources []Result) string {
	sections := []string{
		fmt.Sprintf("I remember researching %q before! Here's what I saved:", topic),
	}
	if summary != "" {
		sections = append(sections, summary)
	}
	sections = append(sections, c.keyPoints(keyFacts), c.sources(sources),
		"Want me to run a fresh search on this instead? Just ask!")
	return joinSections(sections)
}

func (c *Composer) intro(sourceCount int) string {
	intros := []string{
		fmt.Sprintf("I searched the web and found information from %d sources to help answer your question!", sourceCount),
		fmt.Sprintf("Based on my search of %d sources, here's what I found:", sourceCount),
		fmt.Sprintf("Let me share what I discovered from %d sources about this topic:", sourceCount),
	}
	return intros[c.rng.Intn(len(intros))]
}

func (c *Composer) mainContent(facts ConsolidatedFacts) string {
	parts := make([]string, 0, 8)

	if len(facts.Definitions) > 0 {
		parts = append(parts, "**Definition:**")
		parts = append(parts, "- "+clip(facts.Definitions[0], 200))
	}
	if len(facts.Features) > 0 {
		parts = append(parts, "**Key Features:**")
		for _, feature := range capList(facts.Features, 2) {
			parts = append(parts, "- "+clip(feature, 150))
		}
	}
	if len(facts.Examples) > 0 {
		parts = append(parts, "**Examples:**")
		for _, example := range capList(facts.Examples, 2) {
			parts = append(parts, "- "+clip(example, 150))
		}
	}
	return strings.Join(parts, "\n")
}

func (c *Composer) keyPoints(keyInformation []string) string {
	if len(keyInformation) == 0 {
		return ""
	}
	points := []string{"**Key Points:**"}
	for i, info := range capList(keyInformation, maxKeyPoints) {
		points = append(points, fmt.Sprintf("%d. %s", i+1, clip(info, 120)))
	}
	return strings.Join(points, "\n")
}

// sources renders the source list de-duplicated by URL, first-seen order,
// capped to the display limit.
func (c *Composer) sources(sources []Result) string {
	if len(sources) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(sources))
	unique := make([]Result, 0, len(sources))
	for _, source := range sources {
		if _, dup := seen[source.URL]; dup {
			continue
		}
		seen[source.URL] = struct{}{}
		unique = append(unique, source)
	}
	if len(unique) > c.maxSources {
		unique = unique[:c.maxSources]
	}

	lines := []string{"**Sources:**"}
	for i, source := range unique {
		title := source.Title
		if title == "" {
			title = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%d. [%s](%s)", i+1, clip(title, 60), source.URL))
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) conclusion() string {
	conclusions := []string{
		"Would you like me to search for more specific information about any of these points?",
		"Is there a particular aspect you'd like me to explore further?",
		"Let me know if you need clarification on any of these points!",
		"I can dive deeper into any specific area that interests you the most.",
	}
	return conclusions[c.rng.Intn(len(conclusions))]
}

func joinSections(sections []string) string {
	kept := make([]string, 0, len(sections))
	for _, section := range sections {
		if strings.TrimSpace(section) != "" {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "\n\n")
}

func capList(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
