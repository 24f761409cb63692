package persona

import "time"

// Event tags the brain emits as a turn is processed. Each tag maps to trait
// adjustments and mood boosts in the persona definition.
const (
	TagGreeting        = "greeting"
	TagQuestionAsked   = "question_asked"
	TagDiscoveryShared = "discovery_shared"
	TagHelpRequested   = "help_requested"
	TagSearchCompleted = "search_completed"
	TagCacheHit        = "cache_hit"
	TagResearchSaved   = "research_saved"
	TagMemoryGranted   = "memory_granted"
	TagMemoryDeclined  = "memory_declined"
)

// Trait is one bounded personality dimension. Value stays in [0,1]; it is
// mutated only by Evolve and reset to BaseValue, never deleted.
type Trait struct {
	Name          string    `json:"name"`
	Value         float64   `json:"value"`
	BaseValue     float64   `json:"base_value"`
	EvolutionRate float64   `json:"evolution_rate"`
	LastUpdated   time.Time `json:"last_updated"`
	Influences    []string  `json:"influences"`
}

// Event records one significant trait evolution. The engine keeps the most
// recent 100.
type Event struct {
	Tag       string    `json:"tag"`
	Trait     string    `json:"trait"`
	Change    float64   `json:"change"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the JSON state persisted across restarts. Mood factors are
// transient unless saved together with the traits.
type Snapshot struct {
	Traits  []Trait            `json:"traits"`
	Mood    map[string]float64 `json:"mood,omitempty"`
	SavedAt time.Time          `json:"saved_at"`
}

// Summary is the compact status view used by the CLI and status command.
type Summary struct {
	Mood            string
	DominantTraits  []string
	TraitValues     map[string]float64
	EvolutionEvents int
}
